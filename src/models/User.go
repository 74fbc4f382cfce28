package models

type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type Authentication struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Authorization struct {
	Code     int    `json:"code"`
	Token    string `json:"token"`
	Expire   string `json:"expire"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
