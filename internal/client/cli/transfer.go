package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"passvault/internal/common"
	"passvault/internal/filex"
	"passvault/internal/vault/export"
)

// Export writes the unlocked vault to a JSON file in the configured export
// directory. Sensitive fields are sealed under a separate export password.
func (a *App) Export(ctx context.Context) error {
	v, err := a.manager.CurrentVault()
	if err != nil {
		errColor.Fprintf(a.out, "Export failed: %v\n", err)
		return err
	}

	password, err := GetPassword("Export password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	doc, err := export.Export(v, password)
	if err != nil {
		errColor.Fprintf(a.out, "Export failed: %v\n", err)
		return err
	}
	raw, err := export.Marshal(doc)
	if err != nil {
		errColor.Fprintf(a.out, "Export failed: %v\n", err)
		return err
	}

	path, err := filex.WriteExport(a.config.ExportDir, raw, time.Now())
	if err != nil {
		errColor.Fprintf(a.out, "Export failed: %v\n", err)
		return err
	}

	okColor.Fprintf(a.out, "Exported %d entries to %s\n", len(doc.Entries), path)
	return nil
}

// Import reads an export document, validates it, and replaces the unlocked
// vault's contents with the imported entries.
func (a *App) Import(ctx context.Context, path string) error {
	owner := a.manager.Owner()
	if owner == "" {
		errColor.Fprintln(a.out, "Unlock the vault before importing")
		return common.ErrLocked
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		errColor.Fprintf(a.out, "Cannot read %s: %v\n", path, err)
		return err
	}

	report, err := export.ValidateEncryption(raw)
	if err != nil {
		errColor.Fprintf(a.out, "Not a vault export: %v\n", err)
		return err
	}
	if len(report.LegacyEntries) > 0 {
		warnColor.Fprintf(a.out, "%d entries use a legacy unencrypted format\n", len(report.LegacyEntries))
	}
	if len(report.PlaintextLeaks) > 0 {
		warnColor.Fprintf(a.out, "%d entries expose plaintext passwords in this file\n", len(report.PlaintextLeaks))
	}

	var password []byte
	if report.EncryptedCount > 0 {
		password, err = GetPassword("Export password", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(password)
	}

	v, warnings, err := export.Import(raw, owner, password)
	for _, w := range warnings {
		warnColor.Fprintln(a.out, "warning: "+w)
	}
	if err != nil {
		switch {
		case errors.Is(err, common.ErrOwnerMismatch):
			errColor.Fprintln(a.out, "This export belongs to a different owner")
		case errors.Is(err, common.ErrDecryption):
			errColor.Fprintln(a.out, "Wrong export password")
		default:
			errColor.Fprintf(a.out, "Import failed: %v\n", err)
		}
		return err
	}

	if err := a.manager.ReplaceContents(ctx, v); err != nil {
		errColor.Fprintf(a.out, "Import failed: %v\n", err)
		return err
	}

	okColor.Fprintf(a.out, "Imported %d entries\n", len(v.Entries))
	return nil
}
