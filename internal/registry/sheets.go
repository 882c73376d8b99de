package registry

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"wedding-guestbot/internal/models"
	"wedding-guestbot/internal/phone"
)

// Spreadsheet columns: Timestamp | Guest Name | Phone Number | Group |
// Party Size | Likely | Added By.
var sheetHeaders = []interface{}{
	"Timestamp", "Guest Name", "Phone Number", "Group", "Party Size", "Likely", "Added By",
}

const sheetColumns = "A:G"

// SheetsRegistry stores guest records in a Google Sheet. All rows are
// preloaded into an in-memory index keyed by canonical phone, so duplicate
// lookups never hit the API; appends and deletes write through.
type SheetsRegistry struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetTitle    string
	sheetID       int64
	norm          *phone.Normalizer
	log           zerolog.Logger

	mu   sync.Mutex
	rows []cachedRow
}

// cachedRow pairs a record with its 1-based sheet row, the locator used for
// deletion.
type cachedRow struct {
	rec    models.GuestRecord
	rowNum int64
}

// NewSheetsRegistry connects to the spreadsheet, writes the header row if
// the sheet is empty, and preloads all existing records. Phones read back
// from the sheet are re-canonicalized so manual edits keep matching.
func NewSheetsRegistry(ctx context.Context, credentialsJSON []byte, spreadsheetID string, norm *phone.Normalizer, log zerolog.Logger) (*SheetsRegistry, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	meta, err := svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	if len(meta.Sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no sheets", spreadsheetID)
	}
	props := meta.Sheets[0].Properties

	r := &SheetsRegistry{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetTitle:    props.Title,
		sheetID:       props.SheetId,
		norm:          norm,
		log:           log,
	}

	if err := r.ensureHeaders(ctx); err != nil {
		return nil, err
	}
	if err := r.reload(ctx); err != nil {
		return nil, err
	}
	r.log.Info().Int("records", len(r.rows)).Str("sheet", r.sheetTitle).Msg("guest registry loaded")
	return r, nil
}

// FindByPhone looks up the cached index; (nil, nil) when absent.
func (r *SheetsRegistry) FindByPhone(_ context.Context, canonicalPhone string) (*models.GuestRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.rows {
		if r.rows[i].rec.Phone == canonicalPhone {
			rec := r.rows[i].rec
			return &rec, nil
		}
	}
	return nil, nil
}

// Append writes the record to the sheet and extends the cache.
func (r *SheetsRegistry) Append(ctx context.Context, rec models.GuestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	vr := &sheets.ValueRange{Values: [][]interface{}{encodeRow(rec)}}
	resp, err := r.svc.Spreadsheets.Values.
		Append(r.spreadsheetID, r.rangeRef(sheetColumns), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append guest row: %w", err)
	}

	updatedRange := ""
	if resp.Updates != nil {
		updatedRange = resp.Updates.UpdatedRange
	}
	rowNum, ok := rowFromRange(updatedRange)
	if !ok {
		// Could not tell where the row landed; rebuild the index instead
		// of guessing.
		r.log.Warn().Str("range", updatedRange).Msg("unparseable append range, reloading registry")
		return r.reload(ctx)
	}
	r.rows = append(r.rows, cachedRow{rec: rec, rowNum: rowNum})
	return nil
}

// Delete removes the row holding the canonical phone via a DeleteDimension
// batch update, then shifts the cached locators above it.
func (r *SheetsRegistry) Delete(ctx context.Context, canonicalPhone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.rows {
		if r.rows[i].rec.Phone == canonicalPhone {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	rowNum := r.rows[idx].rowNum
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    r.sheetID,
					Dimension:  "ROWS",
					StartIndex: rowNum - 1,
					EndIndex:   rowNum,
				},
			},
		}},
	}
	if _, err := r.svc.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("delete guest row: %w", err)
	}

	r.rows = append(r.rows[:idx], r.rows[idx+1:]...)
	for i := range r.rows {
		if r.rows[i].rowNum > rowNum {
			r.rows[i].rowNum--
		}
	}
	return true, nil
}

// List returns all cached records in sheet order.
func (r *SheetsRegistry) List(_ context.Context) ([]models.GuestRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.GuestRecord, 0, len(r.rows))
	for i := range r.rows {
		out = append(out, r.rows[i].rec)
	}
	return out, nil
}

// ensureHeaders writes the header row once, on first use of an empty sheet.
func (r *SheetsRegistry) ensureHeaders(ctx context.Context) error {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, r.rangeRef("A1:G1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet headers: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{sheetHeaders}}
	_, err = r.svc.Spreadsheets.Values.
		Update(r.spreadsheetID, r.rangeRef("A1:G1"), vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet headers: %w", err)
	}
	r.log.Info().Msg("initialized sheet headers")
	return nil
}

// reload replaces the cache with the sheet's current contents. Caller holds
// the lock (or is the constructor).
func (r *SheetsRegistry) reload(ctx context.Context) error {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, r.rangeRef("A2:G")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read guest rows: %w", err)
	}

	rows := make([]cachedRow, 0, len(resp.Values))
	for i, raw := range resp.Values {
		rec := decodeRow(raw)
		if rec.Phone == "" {
			continue
		}
		rec.Phone = r.norm.Canonical(rec.Phone)
		rows = append(rows, cachedRow{rec: rec, rowNum: int64(i + 2)})
	}
	r.rows = rows
	return nil
}

func (r *SheetsRegistry) rangeRef(cells string) string {
	return fmt.Sprintf("'%s'!%s", r.sheetTitle, cells)
}

func encodeRow(rec models.GuestRecord) []interface{} {
	likely := ""
	if rec.Likely != nil {
		if *rec.Likely {
			likely = "yes"
		} else {
			likely = "no"
		}
	}
	return []interface{}{
		rec.AddedAt.Format(time.RFC3339),
		rec.Name,
		rec.Phone,
		rec.Group,
		strconv.Itoa(rec.PartySize),
		likely,
		rec.AddedBy,
	}
}

func decodeRow(raw []interface{}) models.GuestRecord {
	rec := models.GuestRecord{
		Name:    cell(raw, 1),
		Phone:   cell(raw, 2),
		Group:   cell(raw, 3),
		AddedBy: cell(raw, 6),
	}
	if ts, err := time.Parse(time.RFC3339, cell(raw, 0)); err == nil {
		rec.AddedAt = ts
	}
	if n, err := strconv.Atoi(cell(raw, 4)); err == nil {
		rec.PartySize = n
	}
	switch strings.ToLower(cell(raw, 5)) {
	case "yes":
		v := true
		rec.Likely = &v
	case "no":
		v := false
		rec.Likely = &v
	}
	return rec
}

func cell(raw []interface{}, i int) string {
	if i >= len(raw) {
		return ""
	}
	s, _ := raw[i].(string)
	return strings.TrimSpace(s)
}

// rowFromRange extracts the 1-based row number from an updated range like
// "'Sheet1'!A12:G12".
func rowFromRange(ref string) (int64, bool) {
	_, cells, ok := strings.Cut(ref, "!")
	if !ok {
		return 0, false
	}
	first, _, _ := strings.Cut(cells, ":")
	digits := strings.TrimLeft(first, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$")
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
