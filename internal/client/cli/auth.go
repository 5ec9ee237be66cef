package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/strongholdapp/docsync/internal/common"
)

func (a *App) register(ctx context.Context) {
	username := a.promptRequired("Username")
	password := a.promptPassword("Password")

	if err := a.api.Register(ctx, username, password); err != nil {
		if errors.Is(err, common.ErrUserAlreadyExists) {
			fmt.Println("That username is taken.")
			return
		}
		fmt.Println("Registration failed:", err)
		return
	}
	fmt.Println("Registered. You can now log in.")
}

func (a *App) login(ctx context.Context) {
	username := a.promptRequired("Username")
	password := a.promptPassword("Password")

	if _, err := a.api.Login(ctx, username, password); err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			fmt.Println("Wrong username or password.")
			return
		}
		fmt.Println("Login failed:", err)
		return
	}

	if err := a.engine.Initialize(ctx, username); err != nil {
		fmt.Println("Sync engine failed to start:", err)
		return
	}

	a.userName = username
	fmt.Println("Logged in as", username)
}

func (a *App) logout(ctx context.Context) {
	if !a.isLoggedIn() {
		fmt.Println("Not logged in.")
		return
	}
	a.engine.Cleanup()
	a.userName = ""
	fmt.Println("Logged out.")
}
