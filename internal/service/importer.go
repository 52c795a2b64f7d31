package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
	"github.com/jeffersonfukner-hue/moneyquest/internal/statement"
)

// ImportService runs the staged statement-import pipeline: size/type gate,
// parse, column mapping, transform, dedup, persist. Nothing is written until
// the commit stage, and mapping validation blocks commit entirely.
type ImportService struct {
	BankLines *repository.BankLineRepo
	Wallets   *repository.WalletRepo
	Log       *logrus.Logger

	MaxFileBytes int64
	MaxRows      int
}

// Preview is the parse+inference stage shown to the user before mapping.
type Preview struct {
	Headers    []string
	Roles      []statement.Role
	SampleRows [][]string
	RowCount   int
}

// ImportResult is the commit stage outcome.
type ImportResult struct {
	Imported    int
	Duplicates  int
	SkippedRows int
}

// CheckFile enforces the pre-parse gates: extension and byte size.
func (s *ImportService) CheckFile(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".csv" && ext != ".txt" {
		return ErrInvalidFileType
	}
	if s.MaxFileBytes > 0 && size > s.MaxFileBytes {
		return ErrFileTooLarge
	}
	return nil
}

// Preview parses raw text and infers default column roles.
func (s *ImportService) Preview(ctx context.Context, walletID, raw string) (*Preview, error) {
	if w, err := s.Wallets.Get(ctx, walletID); err != nil {
		return nil, err
	} else if w == nil {
		return nil, ErrWalletNotFound
	}

	doc, err := statement.Parse(raw)
	if err != nil {
		return nil, err
	}
	sample := doc.Rows
	if len(sample) > 10 {
		sample = sample[:10]
	}
	return &Preview{
		Headers:    doc.Headers,
		Roles:      statement.DetectAllRoles(doc),
		SampleRows: sample,
		RowCount:   len(doc.Rows),
	}, nil
}

// Commit validates the chosen mappings, transforms rows, drops duplicates
// against the wallet's persisted fingerprints, and inserts the unique lines.
// Mapping errors are returned itemized and nothing is persisted.
func (s *ImportService) Commit(ctx context.Context, walletID, raw string, mappings []statement.Role) (*ImportResult, []statement.MappingError, error) {
	if w, err := s.Wallets.Get(ctx, walletID); err != nil {
		return nil, nil, err
	} else if w == nil {
		return nil, nil, ErrWalletNotFound
	}

	if errs := statement.ValidateMappings(mappings); len(errs) > 0 {
		return nil, errs, nil
	}

	doc, err := statement.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	rows := doc.Rows
	if s.MaxRows > 0 && len(rows) > s.MaxRows {
		rows = rows[:s.MaxRows]
	}

	lines, skipped := statement.TransformWithMappings(rows, mappings)

	existing, err := s.BankLines.Fingerprints(ctx, walletID)
	if err != nil {
		return nil, nil, err
	}
	deduped := statement.DeduplicateLines(walletID, lines, existing)

	res := &ImportResult{Duplicates: deduped.Duplicates, SkippedRows: skipped}
	for _, line := range deduped.Unique {
		bl := repository.BankLine{
			ID:              uuid.NewString(),
			WalletID:        walletID,
			TransactionDate: line.Date,
			Description:     line.Description,
			Amount:          line.Amount,
			BankReference:   line.BankReference,
			Counterparty:    line.Counterparty,
			Fingerprint:     statement.Fingerprint(walletID, line.Date, line.Amount, line.Description, line.BankReference),
		}
		if err := s.BankLines.Insert(ctx, bl); err != nil {
			// the unique index is the backstop for concurrent imports
			if strings.Contains(err.Error(), "UNIQUE") {
				res.Duplicates++
				continue
			}
			return nil, nil, err
		}
		res.Imported++
	}

	s.Log.WithFields(logrus.Fields{
		"wallet_id":  walletID,
		"imported":   res.Imported,
		"duplicates": res.Duplicates,
		"skipped":    res.SkippedRows,
	}).Info("statement import committed")
	return res, nil, nil
}
