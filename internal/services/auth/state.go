package auth

import "github.com/magabrotheeeer/ghibli-explorer/internal/models"

// LoginStatus вариант состояния входа.
type LoginStatus string

const (
	NotChecked      LoginStatus = "not_checked"
	Authenticated   LoginStatus = "authenticated"
	Unauthenticated LoginStatus = "unauthenticated"
	Failed          LoginStatus = "failed"
)

// LoginState состояние входа. Reason заполнен для Failed, User и Token заполнены для Authenticated.
// Err хранит исходную ошибку, если отказ вызван сбоем, а не учётными данными.
type LoginState struct {
	Status LoginStatus
	Reason string
	Err    error
	User   *models.User
	Token  string
}

func failed(reason string) LoginState {
	return LoginState{Status: Failed, Reason: reason}
}

func failedWith(err error) LoginState {
	return LoginState{Status: Failed, Reason: MsgErrorOccurred + err.Error(), Err: err}
}

// RegisterStatus вариант состояния регистрации.
type RegisterStatus string

const (
	RegisterIdle     RegisterStatus = "idle"
	Registered       RegisterStatus = "registered"
	RegisterRejected RegisterStatus = "failed"
)

// RegisterState результат регистрации.
type RegisterState struct {
	Status RegisterStatus
	Reason string
	Err    error
	User   *models.User
}

func registerFailed(reason string) RegisterState {
	return RegisterState{Status: RegisterRejected, Reason: reason}
}

func registerFailedWith(err error) RegisterState {
	return RegisterState{Status: RegisterRejected, Reason: MsgErrorOccurred + err.Error(), Err: err}
}
