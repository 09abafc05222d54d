package dto

import "github.com/spec-kit/fluxo-portal/internal/service"

// ContactForm is the body of POST /contacto.
type ContactForm struct {
	ContactName     string `form:"contactName"`
	ContactEmail    string `form:"contactEmail"`
	Phone           string `form:"phone"`
	ServiceInterest string `form:"serviceInterest"`
	Details         string `form:"details"`
}

func (f ContactForm) Input() service.ContactInput {
	return service.ContactInput{
		Name:            f.ContactName,
		Email:           f.ContactEmail,
		Phone:           f.Phone,
		ServiceInterest: f.ServiceInterest,
		Details:         f.Details,
	}
}

// LoginForm is the body of POST /login.
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (f LoginForm) Input() service.LoginInput {
	return service.LoginInput{Email: f.Email, Password: f.Password}
}

// Redacted drops the password before the form is rendered back.
func (f LoginForm) Redacted() LoginForm {
	f.Password = ""
	return f
}

// RegisterForm is the body of POST /registo.
type RegisterForm struct {
	Name            string `form:"name"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
	Company         string `form:"company"`
	Phone           string `form:"phone"`
}

func (f RegisterForm) Input() service.RegisterInput {
	return service.RegisterInput{
		Name:            f.Name,
		Email:           f.Email,
		Password:        f.Password,
		ConfirmPassword: f.ConfirmPassword,
		Company:         f.Company,
		Phone:           f.Phone,
	}
}

// Redacted drops both passwords before the form is rendered back.
func (f RegisterForm) Redacted() RegisterForm {
	f.Password, f.ConfirmPassword = "", ""
	return f
}

// ClientRequestForm is the body of POST /solicitacoes.
type ClientRequestForm struct {
	Phone           string `form:"phone"`
	ServiceInterest string `form:"serviceInterest"`
	Details         string `form:"details"`
}

func (f ClientRequestForm) Input() service.ClientRequestInput {
	return service.ClientRequestInput{
		Phone:           f.Phone,
		ServiceInterest: f.ServiceInterest,
		Details:         f.Details,
	}
}

// StatusForm is the body of POST /solicitacoes/:id/status.
type StatusForm struct {
	Status string `form:"status"`
}

// AdminRegisterRequest is the JSON or form body of POST /admin/registo.
type AdminRegisterRequest struct {
	Token    string `json:"token" form:"token"`
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Phone    string `json:"phone" form:"phone"`
}

func (r AdminRegisterRequest) Input() service.AdminRegisterInput {
	return service.AdminRegisterInput{
		Token:    r.Token,
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Phone:    r.Phone,
	}
}

// ErrorItem mirrors one entry of the JSON error list.
type ErrorItem struct {
	Field string `json:"field,omitempty"`
	Msg   string `json:"msg"`
}

// ErrorsResponse is the JSON failure body of /admin/registo.
type ErrorsResponse struct {
	Errors []ErrorItem `json:"errors"`
}

// MessageResponse is a JSON success body.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
