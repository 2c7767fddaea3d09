package cli

import (
	"context"
	"errors"
	"fmt"

	"passvault/internal/common"
	"passvault/internal/strength"
	"passvault/internal/vault"
)

// Add interactively collects a new entry and stores it.
func (a *App) Add(ctx context.Context) error {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if res := strength.Score(string(password)); res.Score < strength.MinMasterScore {
		warnColor.Fprintf(a.out, "Weak password (%s). Stored anyway.\n", res.Strength)
		for _, f := range res.Feedback {
			warnColor.Fprintf(a.out, "  - %s\n", f)
		}
	}

	url, err := GetSimpleText(a.reader, "URL", a.out)
	if err != nil {
		return err
	}
	category, err := GetSimpleText(a.reader, "Category (login, wallet, email, banking, note, other)", a.out)
	if err != nil {
		return err
	}
	notes, err := GetMultiline(a.reader, "Notes", a.out)
	if err != nil {
		return err
	}

	e, err := a.manager.AddEntry(ctx, vault.Entry{
		Title:    title,
		Username: username,
		Password: string(password),
		URL:      url,
		Notes:    notes,
		Category: vault.Category(category),
	})
	if err != nil {
		errColor.Fprintf(a.out, "Add failed: %v\n", err)
		return err
	}

	okColor.Fprintf(a.out, "Added entry %s\n", e.ID)
	return nil
}

// List prints a one-line summary per entry.
func (a *App) List(_ context.Context) error {
	entries, err := a.manager.ListEntries()
	if err != nil {
		errColor.Fprintf(a.out, "List failed: %v\n", err)
		return err
	}

	if len(entries) == 0 {
		printlnFn("Vault is empty")
		return nil
	}

	headerColor.Fprintf(a.out, "%-38s %-20s %-10s %s\n", "ID", "TITLE", "CATEGORY", "USERNAME")
	for _, e := range entries {
		marker := ""
		if e.RemoteRef != "" {
			marker = " [offloaded]"
		}
		fmt.Fprintf(a.out, "%-38s %-20s %-10s %s%s\n", e.ID, e.Title, e.Category, e.Username, marker)
	}
	return nil
}

// Show prints one entry in full, password included.
func (a *App) Show(_ context.Context, id string) error {
	e, err := a.manager.GetEntry(id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			errColor.Fprintf(a.out, "No entry with id %s\n", id)
		} else {
			errColor.Fprintf(a.out, "Show failed: %v\n", err)
		}
		return err
	}

	headerColor.Fprintln(a.out, e.Title)
	fmt.Fprintf(a.out, "  id:       %s\n", e.ID)
	fmt.Fprintf(a.out, "  username: %s\n", e.Username)
	fmt.Fprintf(a.out, "  url:      %s\n", e.URL)
	fmt.Fprintf(a.out, "  category: %s\n", e.Category)
	fmt.Fprintf(a.out, "  privacy:  %s\n", e.PrivacyLevel)
	fmt.Fprintf(a.out, "  updated:  %s\n", e.UpdatedAt.Format("2006-01-02 15:04:05"))
	if e.RemoteRef != "" {
		warnColor.Fprintf(a.out, "  offloaded to %s (use 'restore %s' to fetch)\n", e.RemoteRef, e.ID)
	} else {
		fmt.Fprintf(a.out, "  password: %s\n", e.Password)
		if e.Notes != "" {
			fmt.Fprintf(a.out, "  notes:    %s\n", e.Notes)
		}
	}
	return nil
}

// Edit interactively patches an entry. Empty answers keep current values.
func (a *App) Edit(ctx context.Context, id string) error {
	e, err := a.manager.GetEntry(id)
	if err != nil {
		errColor.Fprintf(a.out, "Edit failed: %v\n", err)
		return err
	}

	patch := vault.EntryPatch{}

	if v, err := GetSimpleText(a.reader, fmt.Sprintf("Title [%s]", e.Title), a.out); err != nil {
		return err
	} else if v != "" {
		patch.Title = &v
	}
	if v, err := GetSimpleText(a.reader, fmt.Sprintf("Username [%s]", e.Username), a.out); err != nil {
		return err
	} else if v != "" {
		patch.Username = &v
	}
	pw, err := GetPassword("Password (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	if len(pw) > 0 {
		s := string(pw)
		patch.Password = &s
		common.WipeByteArray(pw)
	}
	if v, err := GetSimpleText(a.reader, fmt.Sprintf("URL [%s]", e.URL), a.out); err != nil {
		return err
	} else if v != "" {
		patch.URL = &v
	}

	if _, err := a.manager.UpdateEntry(ctx, id, patch); err != nil {
		errColor.Fprintf(a.out, "Edit failed: %v\n", err)
		return err
	}
	okColor.Fprintln(a.out, "Entry updated")
	return nil
}

// Delete removes an entry. Unknown ids are reported but not an error.
func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.manager.DeleteEntry(ctx, id); err != nil {
		errColor.Fprintf(a.out, "Delete failed: %v\n", err)
		return err
	}
	okColor.Fprintf(a.out, "Entry %s deleted (if it existed)\n", id)
	return nil
}

// Offload moves an entry's sensitive fields into the blob store.
func (a *App) Offload(ctx context.Context, id string) error {
	if err := a.manager.OffloadEntry(ctx, id); err != nil {
		errColor.Fprintf(a.out, "Offload failed: %v\n", err)
		return err
	}
	okColor.Fprintf(a.out, "Entry %s offloaded\n", id)
	return nil
}

// Restore brings an offloaded entry's sensitive fields back.
func (a *App) Restore(ctx context.Context, id string) error {
	if err := a.manager.RestoreEntry(ctx, id); err != nil {
		errColor.Fprintf(a.out, "Restore failed: %v\n", err)
		return err
	}
	okColor.Fprintf(a.out, "Entry %s restored\n", id)
	return nil
}
