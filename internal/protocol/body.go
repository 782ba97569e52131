package protocol

import (
	"net/url"

	"cpolarstatus/pkg/domain"
)

// 登录表单字段名
const (
	FormLogin    = "login"
	FormPassword = "password"
)

// LoginForm 构造 application/x-www-form-urlencoded 登录请求体
func LoginForm(creds domain.Credentials) string {
	form := url.Values{}
	form.Set(FormLogin, creds.LoginName)
	form.Set(FormPassword, creds.Password)
	return form.Encode()
}
