package forms

import "strings"

// Errors 按字段收集校验失败信息，空 map 表示表单有效。
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Empty() bool {
	return len(e) == 0
}

// RegisterForm 对应注册页的提交内容。
type RegisterForm struct {
	Username  string `form:"username" json:"username"`
	Password1 string `form:"password1" json:"password1"`
	Password2 string `form:"password2" json:"password2"`
}

func (f *RegisterForm) Validate() Errors {
	errs := Errors{}
	f.Username = strings.TrimSpace(f.Username)
	if f.Username == "" {
		errs.Add("username", "This field is required.")
	} else if len(f.Username) < 2 || len(f.Username) > 64 {
		errs.Add("username", "Username must be between 2 and 64 characters.")
	}
	if f.Password1 == "" {
		errs.Add("password1", "This field is required.")
	} else if len(f.Password1) < 4 || len(f.Password1) > 72 {
		// bcrypt 只取前 72 字节，超长在这里拦下而不是落到哈希报错
		errs.Add("password1", "Password must be between 4 and 72 characters.")
	}
	if f.Password2 != f.Password1 {
		errs.Add("password2", "The two password fields didn't match.")
	}
	return errs
}

// LoginForm 对应登录页的提交内容。
type LoginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (f *LoginForm) Validate() Errors {
	errs := Errors{}
	f.Username = strings.TrimSpace(f.Username)
	if f.Username == "" {
		errs.Add("username", "This field is required.")
	}
	if f.Password == "" {
		errs.Add("password", "This field is required.")
	}
	return errs
}

// RoomForm 对应创建/编辑房间的提交内容。
type RoomForm struct {
	Name        string `form:"name" json:"name"`
	Topic       string `form:"topic" json:"topic"`
	Description string `form:"description" json:"description"`
}

func (f *RoomForm) Validate() Errors {
	errs := Errors{}
	f.Name = strings.TrimSpace(f.Name)
	f.Topic = strings.TrimSpace(f.Topic)
	if f.Name == "" {
		errs.Add("name", "This field is required.")
	} else if len(f.Name) > 128 {
		errs.Add("name", "Room name must be at most 128 characters.")
	}
	if f.Topic == "" {
		errs.Add("topic", "This field is required.")
	} else if len(f.Topic) > 128 {
		errs.Add("topic", "Topic name must be at most 128 characters.")
	}
	return errs
}

// MessageForm 对应房间页的发言框。空内容也允许发布。
type MessageForm struct {
	Body string `form:"body" json:"body"`
}

// UserForm 对应个人资料编辑页。
type UserForm struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Bio      string `form:"bio" json:"bio"`
}

func (f *UserForm) Validate() Errors {
	errs := Errors{}
	f.Username = strings.TrimSpace(f.Username)
	if f.Username == "" {
		errs.Add("username", "This field is required.")
	} else if len(f.Username) < 2 || len(f.Username) > 64 {
		errs.Add("username", "Username must be between 2 and 64 characters.")
	}
	if len(f.Email) > 128 {
		errs.Add("email", "Email must be at most 128 characters.")
	}
	return errs
}
