package cli

import (
	"context"
	"errors"

	"passvault/internal/common"
	"passvault/internal/strength"
)

// Passwd rotates the master password of the unlocked vault.
func (a *App) Passwd(ctx context.Context) error {
	oldPw, err := GetPassword("Current master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPw)

	newPw, err := GetPassword("New master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPw)

	confirm, err := GetPassword("Repeat new master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(newPw) != string(confirm) {
		errColor.Fprintln(a.out, "Passwords do not match")
		return errors.New("password confirmation mismatch")
	}

	if err := a.manager.ChangeMasterPassword(ctx, oldPw, newPw); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			errColor.Fprintln(a.out, "Current master password is wrong")
		case errors.Is(err, common.ErrWeakPassword):
			errColor.Fprintf(a.out, "New password is too weak: %v\n", err)
		default:
			errColor.Fprintf(a.out, "Password change failed: %v\n", err)
		}
		return err
	}

	okColor.Fprintln(a.out, "Master password changed")
	return nil
}

// Strength scores a candidate password and prints the rubric feedback. The
// candidate is never stored.
func (a *App) Strength(_ context.Context) error {
	pw, err := GetPassword("Password to check", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	res := strength.Score(string(pw))

	line := okColor
	switch res.Strength {
	case strength.LevelWeak:
		line = errColor
	case strength.LevelMedium:
		line = warnColor
	}
	line.Fprintf(a.out, "%s (score %d/%d)\n", res.Strength, res.Score, strength.MaxScore)
	for _, f := range res.Feedback {
		printlnFn("  - " + f)
	}
	return nil
}
