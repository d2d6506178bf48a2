// Package importer loads wallet CSV exports into the movement feed.
//
// The exports are messy: preamble rows before the header, BOM-prefixed
// header cells, header name variants between wallets, comma decimals, and
// numeric ids damaged by spreadsheet round-trips. The importer absorbs all
// of that so only clean, normalized movements reach storage.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/atenea-cash/atenea-backend/internal/domain/model"
	"github.com/atenea-cash/atenea-backend/internal/domain/normalize"
	"github.com/atenea-cash/atenea-backend/internal/infrastructure/storage"
)

// ErrMissingColumns is returned when the export lacks one of the required
// header columns.
var ErrMissingColumns = errors.New("csv is missing required columns: Fecha, ID, Monto, Destinario/Origen, CUIL/CUIT")

// headerScanRows is how deep into the file the header row is searched for;
// some exports carry summary preamble rows above it
const headerScanRows = 20

// Importer parses wallet exports and feeds them into storage
type Importer struct {
	feed         storage.MovementFeed
	logger       *slog.Logger
	amountFactor float64
	idFactor     float64
}

// New creates an importer. The factors correct feeds that report amounts or
// ids at the wrong decimal scale; 1 means no correction.
func New(feed storage.MovementFeed, logger *slog.Logger, amountFactor, idFactor float64) *Importer {
	return &Importer{
		feed:         feed,
		logger:       logger,
		amountFactor: amountFactor,
		idFactor:     idFactor,
	}
}

// Result summarizes one import
type Result struct {
	Imported   int                 `json:"imported"`
	Skipped    int                 `json:"skipped"`
	Channel    model.WalletChannel `json:"channel"`
	SourceFile string              `json:"source_file"`
}

// ImportCSV reads a wallet export and stores its movements. The wallet
// channel is inferred from the file name, the only place the exports carry
// it. Rows that cannot be parsed are skipped and counted, not fatal; ids
// already stored are left untouched so overlapping exports can be re-loaded
// freely.
func (im *Importer) ImportCSV(r io.Reader, fileName string) (*Result, error) {
	channel := model.ChannelFromKeywords(fileName)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("csv is empty or has no data rows")
	}

	headerRow, cols, err := resolveColumns(rows)
	if err != nil {
		return nil, err
	}

	result := &Result{Channel: channel, SourceFile: fileName}
	now := time.Now()
	seen := make(map[string]bool)
	var movements []*model.Movement

	for _, row := range rows[headerRow+1:] {
		if len(row) == 0 {
			continue
		}

		rawDate := strings.TrimSpace(cell(row, cols.date))
		rawAmount := cell(row, cols.amount)
		rawName := strings.TrimSpace(cell(row, cols.name))
		rawTaxID := strings.TrimSpace(cell(row, cols.taxID))
		rawWalletID := cell(row, cols.walletID)

		if rawDate == "" || rawName == "" || strings.TrimSpace(rawAmount) == "" {
			result.Skipped++
			continue
		}

		occurredAt, ok := normalize.LocalDateTime(rawDate)
		if !ok {
			result.Skipped++
			continue
		}
		amount, ok := normalize.Amount(rawAmount, im.amountFactor)
		if !ok {
			result.Skipped++
			continue
		}
		walletID := normalize.WalletID(rawWalletID, im.idFactor)
		if walletID == "" {
			result.Skipped++
			continue
		}

		movementID := "MOV_" + walletID
		if seen[movementID] {
			result.Skipped++
			continue
		}
		seen[movementID] = true

		movements = append(movements, &model.Movement{
			ID:         movementID,
			Channel:    channel,
			OccurredAt: occurredAt,
			Amount:     amount,
			PayerName:  rawName,
			PayerTaxID: rawTaxID,
			NameNorm:   normalize.Name(rawName),
			TaxIDNorm:  normalize.TaxID(rawTaxID),
			ImportedAt: now,
			SourceFile: fileName,
		})
	}

	inserted, err := im.feed.InsertMovements(movements)
	if err != nil {
		return nil, err
	}
	result.Imported = inserted
	result.Skipped += len(movements) - inserted

	im.logger.Info("wallet csv imported",
		"file", fileName,
		"channel", channel,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return result, nil
}

// columnSet holds the resolved indexes of the required columns
type columnSet struct {
	date     int
	walletID int
	amount   int
	name     int
	taxID    int
}

// resolveColumns locates the header row and the required columns within it.
// Header cells are matched case-insensitively after BOM stripping; the name
// and tax id columns accept the spelling variants seen across wallets.
func resolveColumns(rows [][]string) (int, columnSet, error) {
	headerRow := 0
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		var hasDate, hasAmount bool
		for _, c := range rows[i] {
			switch cleanHeader(c) {
			case "fecha":
				hasDate = true
			case "monto":
				hasAmount = true
			}
		}
		if hasDate && hasAmount {
			headerRow = i
			break
		}
	}

	find := func(names ...string) int {
		for j, c := range rows[headerRow] {
			h := cleanHeader(c)
			for _, n := range names {
				if h == n {
					return j
				}
			}
		}
		return -1
	}

	cols := columnSet{
		date:     find("fecha"),
		walletID: find("id"),
		amount:   find("monto"),
		name:     find("destinario/origen", "destinatario/origen"),
		taxID:    find("cuil/cuit", "cuit/cuil"),
	}
	if cols.date < 0 || cols.walletID < 0 || cols.amount < 0 || cols.name < 0 || cols.taxID < 0 {
		return 0, columnSet{}, ErrMissingColumns
	}
	return headerRow, cols, nil
}

func cleanHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
