package cli

import (
	"context"
	"errors"

	"passvault/internal/common"
)

// Unlock prompts for owner key and master password, then opens (or
// creates) the vault.
func (a *App) Unlock(ctx context.Context) error {
	owner, err := GetSimpleText(a.reader, "Enter owner key", a.out)
	if err != nil {
		errColor.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	password, err := GetPassword("Enter master password", a.out)
	if err != nil {
		errColor.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.manager.Unlock(ctx, owner, password); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			errColor.Fprintln(a.out, "Invalid master password")
		case errors.Is(err, common.ErrVerifierMissing):
			errColor.Fprintln(a.out, "Vault record is damaged (no password verifier). Run 'wipe' and create the vault again.")
		case errors.Is(err, common.ErrWeakPassword):
			errColor.Fprintf(a.out, "Master password is too weak: %v\n", err)
		default:
			errColor.Fprintf(a.out, "Unlock failed: %v\n", err)
		}
		return err
	}

	okColor.Fprintln(a.out, "Vault unlocked")
	return nil
}

// Lock drops the session key and returns to the locked state.
func (a *App) Lock(_ context.Context) error {
	a.manager.Lock()
	okColor.Fprintln(a.out, "Vault locked")
	return nil
}

// Wipe deletes the current owner's vault after explicit confirmation.
func (a *App) Wipe(ctx context.Context) error {
	owner := a.manager.Owner()
	if owner == "" {
		var err error
		owner, err = GetSimpleText(a.reader, "Enter owner key to wipe", a.out)
		if err != nil {
			errColor.Fprintf(a.out, "error: %v\n", err)
			return err
		}
	}

	warnColor.Fprintf(a.out, "This deletes the vault for %s permanently.\n", owner)
	answer, err := GetSimpleText(a.reader, "Type 'yes' to confirm", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		printlnFn("Aborted")
		return nil
	}

	if err := a.manager.Wipe(ctx, owner); err != nil {
		errColor.Fprintf(a.out, "Wipe failed: %v\n", err)
		return err
	}
	okColor.Fprintln(a.out, "Vault wiped")
	return nil
}

// WipeAll clears every vault in the store after explicit confirmation.
func (a *App) WipeAll(ctx context.Context) error {
	warnColor.Fprintln(a.out, "This deletes ALL vaults for ALL owners permanently.")
	answer, err := GetSimpleText(a.reader, "Type 'wipe everything' to confirm", a.out)
	if err != nil {
		return err
	}
	if answer != "wipe everything" {
		printlnFn("Aborted")
		return nil
	}

	if err := a.manager.EmergencyWipeAll(ctx); err != nil {
		errColor.Fprintf(a.out, "Wipe failed: %v\n", err)
		return err
	}
	okColor.Fprintln(a.out, "All vaults wiped")
	return nil
}
