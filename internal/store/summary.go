package store

import (
	"time"

	"orchard-service/internal/model"
)

// SummaryQuery bounds the per-fruit summary to an inclusive harvest-date
// range; the range applies only when both bounds are present.
type SummaryQuery struct {
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
}

// FruitHarvestSummary aggregates every harvest event of one fruit.
type FruitHarvestSummary struct {
	FruitID        string       `json:"fruit_id"`
	TotalHarvested int64        `json:"total_harvested"`
	HarvestCount   int64        `json:"harvest_count"`
	FirstHarvest   string       `json:"first_harvest"`
	LastHarvest    string       `json:"last_harvest"`
	Fruit          *model.Fruit `json:"fruit,omitempty"`
}

// MonthlyHarvestSummary aggregates one calendar month of a single year.
// Months without harvests are simply absent from the result, never
// zero-filled; the mobile charts rely on that.
type MonthlyHarvestSummary struct {
	Month          int   `json:"month"`
	TotalHarvested int64 `json:"total_harvested"`
	HarvestCount   int64 `json:"harvest_count"`
}

// Layouts the dialects render aggregate date columns in: postgres dates
// come back as plain days, sqlite echoes the stored RFC3339 text.
var aggregateDateLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func normalizeAggregateDate(value string) string {
	for _, layout := range aggregateDateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d.Format(dateLayout)
		}
	}
	return value
}

// SummaryByFruit groups all harvest events by owning fruit: total ripe
// quantity, event count, earliest and latest harvest date, joined with
// the fruit's own record. It reads only persisted rows; no parent
// existence re-check happens here.
func (s *HarvestStore) SummaryByFruit(q SummaryQuery) ([]FruitHarvestSummary, error) {
	errs := FieldErrors{}
	query := s.db.Model(&model.Harvest{})
	if q.StartDate != "" && q.EndDate != "" {
		start, err := time.ParseInLocation(dateLayout, q.StartDate, time.UTC)
		if err != nil {
			errs.Add("start_date", "must be a date in YYYY-MM-DD format")
		}
		end, err := time.ParseInLocation(dateLayout, q.EndDate, time.UTC)
		if err != nil {
			errs.Add("end_date", "must be a date in YYYY-MM-DD format")
		}
		if err := errs.OrNil(); err != nil {
			return nil, err
		}
		query = query.Where("harvest_date BETWEEN ? AND ?", start, end)
	}

	var rows []FruitHarvestSummary
	err := query.
		Select("fruit_id, SUM(ripe_quantity) AS total_harvested, COUNT(*) AS harvest_count, MIN(harvest_date) AS first_harvest, MAX(harvest_date) AS last_harvest").
		Group("fruit_id").
		Order("fruit_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("summarize harvests by fruit", err)
	}
	if len(rows) == 0 {
		return []FruitHarvestSummary{}, nil
	}

	ids := make([]string, 0, len(rows))
	for i := range rows {
		rows[i].FirstHarvest = normalizeAggregateDate(rows[i].FirstHarvest)
		rows[i].LastHarvest = normalizeAggregateDate(rows[i].LastHarvest)
		ids = append(ids, rows[i].FruitID)
	}

	var fruits []model.Fruit
	if err := s.db.Where("id IN ?", ids).Find(&fruits).Error; err != nil {
		return nil, storageError("load fruits for summary", err)
	}
	byID := make(map[string]*model.Fruit, len(fruits))
	for i := range fruits {
		byID[fruits[i].ID] = &fruits[i]
	}
	for i := range rows {
		rows[i].Fruit = byID[rows[i].FruitID]
	}
	return rows, nil
}

// monthExpr extracts the calendar month from harvest_date in the dialect
// the store is running on; tests run on sqlite, production on postgres.
func (s *HarvestStore) monthExpr() string {
	if s.db.Dialector.Name() == "sqlite" {
		return "CAST(strftime('%m', harvest_date) AS INTEGER)"
	}
	return "EXTRACT(MONTH FROM harvest_date)::int"
}

// MonthlySummary groups one calendar year of harvests (default: the
// current year by the server clock) by month, returning total ripe
// quantity and event count per month present in the data. The resolved
// year is returned alongside the rows.
func (s *HarvestStore) MonthlySummary(year int) ([]MonthlyHarvestSummary, int, error) {
	if year == 0 {
		year = time.Now().Year()
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	month := s.monthExpr()
	var rows []MonthlyHarvestSummary
	err := s.db.Model(&model.Harvest{}).
		Select(month+" AS month, SUM(ripe_quantity) AS total_harvested, COUNT(*) AS harvest_count").
		Where("harvest_date BETWEEN ? AND ?", from, to).
		Group(month).
		Order("month").
		Scan(&rows).Error
	if err != nil {
		return nil, year, storageError("summarize harvests by month", err)
	}
	if rows == nil {
		rows = []MonthlyHarvestSummary{}
	}
	return rows, year, nil
}
