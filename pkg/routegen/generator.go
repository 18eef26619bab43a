package routegen

import (
	"fmt"

	"github.com/routewire/routewire/pkg/command"
	"github.com/routewire/routewire/pkg/logger"
)

const (
	homePath  = "/pages/index/index"
	loginPath = "/pages/login/index"
)

// LoginCommand builds the post-login route command for result. Flows are
// checked in priority order; the first matching one wins.
func LoginCommand(result *LoginResult) command.Command {
	setUser := command.ProcessData("user", result.User)

	if result.IsFirstLogin {
		logger.InfoCF("routegen", "first login, redirecting to welcome flow", map[string]interface{}{
			"user_id": result.User.ID,
		})
		return command.Sequence(
			setUser,
			command.Toast("Welcome aboard!"),
			command.RedirectTo(homePath),
		)
	}

	if result.NeedsPasswordUpdate {
		logger.WarnCF("routegen", "user needs password update", map[string]interface{}{
			"user_id": result.User.ID,
		})
		confirm := command.RedirectTo(homePath)
		cancel := command.RedirectTo(homePath)
		return command.Confirm(
			"Password reminder",
			"For account safety, consider updating your password",
			&confirm, &cancel,
		)
	}

	if result.HasPendingTasks {
		message := fmt.Sprintf("You have %d pending tasks", result.PendingTaskCount)
		if result.PendingTaskCount == 1 {
			message = "You have 1 pending task"
		}
		confirm := command.RedirectTo(homePath)
		cancel := command.RedirectTo(homePath)
		return command.Sequence(
			setUser,
			command.Confirm("Pending tasks", message+". Handle them now?", &confirm, &cancel),
		)
	}

	if result.AccountFlags.IsVIP {
		return command.Sequence(
			setUser,
			command.Toast("Welcome back, VIP member!"),
			command.RedirectTo(homePath),
		)
	}

	if result.AccountFlags.IsNewUser {
		return command.Sequence(
			setUser,
			command.Toast("Welcome, new user!"),
			command.RedirectTo(homePath),
		)
	}

	if result.AccountFlags.NeedsProfileCompletion {
		confirm := command.RedirectTo(homePath)
		cancel := command.RedirectTo(homePath)
		return command.Sequence(
			setUser,
			command.Confirm(
				"Complete your profile",
				"Finish setting up your profile for a better experience",
				&confirm, &cancel,
			),
		)
	}

	return command.Sequence(
		setUser,
		command.Toast("Signed in"),
		command.RedirectTo(homePath),
	)
}

// LogoutCommand builds the logout route command for result.
func LogoutCommand(result *LogoutResult) command.Command {
	finish := command.Sequence(
		command.ClearData("user"),
		command.Toast("Signed out"),
		command.RedirectTo(loginPath),
	)

	if result.HasUnsavedData {
		logger.WarnCF("routegen", "logout with unsaved data", map[string]interface{}{
			"user_id": result.UserID,
		})
		return command.Confirm(
			"Unsaved data",
			"You have unsaved changes that will be lost. Sign out anyway?",
			&finish,
			nil, // cancel keeps the session
		)
	}

	if !result.SessionDestroyed {
		logger.WarnCF("routegen", "session destroy failed, continuing logout", map[string]interface{}{
			"user_id": result.UserID,
		})
		return command.Sequence(
			command.ClearData("user"),
			command.Toast("Signed out (some cleanup may have failed)"),
			command.RedirectTo(loginPath),
		)
	}

	return finish
}

// ErrorCommand maps a business error onto a user-facing route command.
// Technical detail stays in logs; the user sees a generic message.
func ErrorCommand(message, code string) command.Command {
	logger.WarnCF("routegen", "generating error route command", map[string]interface{}{
		"error_code":    code,
		"error_message": message,
	})

	switch code {
	case "AUTH_INVALID_CREDENTIALS":
		return command.Alert("Sign-in failed", "Wrong username or password, please try again")
	case "AUTH_ACCOUNT_LOCKED":
		return command.Alert("Account locked", "Your account is locked, please contact an administrator")
	case "AUTH_SESSION_EXPIRED":
		return command.Sequence(
			command.Alert("Session expired", "Your session has expired, please sign in again"),
			command.ClearData("user"),
			command.RedirectTo(loginPath),
		)
	case "NETWORK_ERROR":
		return command.Alert("Network error", "Connection failed, please check your network")
	case "SERVER_MAINTENANCE":
		return command.Alert("Maintenance", "The system is under maintenance, please retry later")
	default:
		return command.Alert("Operation failed", message)
	}
}

// UserDataCommand builds the route command following a user data operation.
func UserDataCommand(result *UserDataResult) command.Command {
	if !result.Success {
		msg := result.ErrorMessage
		if msg == "" {
			msg = "Operation failed"
		}
		return command.Alert("Operation failed", msg)
	}

	switch result.Operation {
	case OpCreate:
		return command.Sequence(
			command.Toast("Created"),
			command.RedirectTo(homePath),
		)
	case OpUpdate:
		return command.Toast("Updated")
	case OpDelete:
		return command.Sequence(
			command.Toast("Deleted"),
			command.RedirectTo(homePath),
		)
	case OpQuery:
		if result.Data != nil {
			return command.ProcessData("queryResult", result.Data)
		}
		return command.Toast("Query complete")
	default:
		return command.Toast("Done")
	}
}
