package farm

import (
	"time"
)

// Sowing activity names that start a virtual crop cycle.
var sowingActivities = map[string]bool{
	"Seed Sowing":    true,
	"വിത്ത് വിതക്കൽ": true,
}

// CropProgress is the virtual farm view of one growing crop.
type CropProgress struct {
	Crop            string `json:"crop"`
	Stage           string `json:"stage"`
	DaysSinceSowing int    `json:"days_since_sowing"`
	PercentComplete int    `json:"percent_complete"`
}

// growth ladder: day thresholds and stage names up to a 90-day cycle.
var growthStages = []struct {
	FromDay int
	Name    string
}{
	{0, "Sown"},
	{3, "Germination"},
	{14, "Seedling"},
	{30, "Vegetative"},
	{60, "Flowering"},
	{90, "Ready for harvest"},
}

// Progress derives the virtual farm from the diary: the latest sowing entry
// per crop defines that crop's cycle start.
func (s *Service) Progress(userID int64) ([]CropProgress, error) {
	entries, err := s.store.GetDiaryEntries(userID)
	if err != nil {
		return nil, err
	}

	// Entries come newest-first; keep the first sowing seen per crop.
	latest := make(map[string]time.Time)
	var order []string
	for _, e := range entries {
		if !sowingActivities[e.Activity] {
			continue
		}
		if _, seen := latest[e.Crop]; seen {
			continue
		}
		sown, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			sown = e.CreatedAt
		}
		latest[e.Crop] = sown
		order = append(order, e.Crop)
	}

	now := s.now()
	var progress []CropProgress
	for _, crop := range order {
		days := int(now.Sub(latest[crop]).Hours() / 24)
		if days < 0 {
			days = 0
		}
		percent := days * 100 / 90
		if percent > 100 {
			percent = 100
		}
		progress = append(progress, CropProgress{
			Crop:            crop,
			Stage:           stageForDay(days),
			DaysSinceSowing: days,
			PercentComplete: percent,
		})
	}
	return progress, nil
}

func stageForDay(days int) string {
	stage := growthStages[0].Name
	for _, s := range growthStages {
		if days >= s.FromDay {
			stage = s.Name
		}
	}
	return stage
}
