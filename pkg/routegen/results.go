// Package routegen turns business outcomes into route command trees. It is
// the server-side counterpart of the engine: pure decision logic over the
// command builders, no transport and no side effects.
package routegen

import "time"

// UserInfo is the user snapshot shipped to the client's state store.
type UserInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	LoggedIn bool   `json:"logged_in"`
}

// AccountFlags mark account states that change the post-login flow.
type AccountFlags struct {
	IsVIP                  bool
	IsNewUser              bool
	HasUnreadNotifications bool
	NeedsProfileCompletion bool
	SecurityLevel          int
}

// LoginResult is the outcome of an authentication attempt.
type LoginResult struct {
	User                UserInfo
	IsFirstLogin        bool
	HasPendingTasks     bool
	PendingTaskCount    int
	LastLoginAt         *time.Time
	NeedsPasswordUpdate bool
	AccountFlags        AccountFlags
}

// LogoutResult is the outcome of a logout attempt.
type LogoutResult struct {
	UserID           string
	SessionDestroyed bool
	HasUnsavedData   bool
}

// UserDataOperation identifies a CRUD operation on user data.
type UserDataOperation string

const (
	OpCreate UserDataOperation = "create"
	OpUpdate UserDataOperation = "update"
	OpDelete UserDataOperation = "delete"
	OpQuery  UserDataOperation = "query"
)

// UserDataResult is the outcome of a user data operation.
type UserDataResult struct {
	Operation    UserDataOperation
	UserID       string
	Success      bool
	ErrorMessage string
	Data         interface{}
}
