package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/krishisakhi/krishisakhi/internal/crops"
	"github.com/krishisakhi/krishisakhi/internal/store"
	"github.com/krishisakhi/krishisakhi/internal/weather"
)

// WeatherHandler proxies the forecast service. Pass either ?district= (a
// known Kerala district) or explicit ?lat=&lon= coordinates.
func (h *APIHandler) WeatherHandler(w http.ResponseWriter, r *http.Request) {
	var lat, lon float64

	if district := r.URL.Query().Get("district"); district != "" {
		coords, ok := weather.Districts[district]
		if !ok {
			http.Error(w, "Unknown district", http.StatusBadRequest)
			return
		}
		lat, lon = coords.Lat, coords.Lon
	} else {
		var err error
		lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		if err != nil {
			http.Error(w, "Invalid or missing lat", http.StatusBadRequest)
			return
		}
		lon, err = strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if err != nil {
			http.Error(w, "Invalid or missing lon", http.StatusBadRequest)
			return
		}
	}

	report, err := h.weather.Fetch(r.Context(), lat, lon)
	if err != nil {
		log.Printf("Error fetching weather for %.4f,%.4f: %v", lat, lon, err)
		http.Error(w, "Failed to fetch weather", http.StatusBadGateway)
		return
	}
	json.NewEncoder(w).Encode(report)
}

type RecommendCropsRequest struct {
	Year   int     `json:"year"`
	Season string  `json:"season"`
	Area   float64 `json:"area"`
}

// RecommendCropsHandler returns ranked crop advice. The recommender degrades
// to a fixed fallback set on upstream failure, so this never 5xxs for model
// trouble.
func (h *APIHandler) RecommendCropsHandler(w http.ResponseWriter, r *http.Request) {
	var req RecommendCropsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Season == "" || req.Area <= 0 {
		http.Error(w, "Season and a positive area are required", http.StatusBadRequest)
		return
	}

	rec := h.crops.Recommend(r.Context(), crops.Query{Year: req.Year, Season: req.Season, Area: req.Area})
	json.NewEncoder(w).Encode(rec)
}

type AddDiaryEntryRequest struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Activity string `json:"activity"`
	Crop     string `json:"crop"`
	Area     string `json:"area,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type AddDiaryEntryResponse struct {
	Entry     *store.DiaryEntry `json:"entry"`
	Reminders []store.Reminder  `json:"reminders"`
}

// AddDiaryEntryHandler records a farming activity and returns the entry with
// its auto-created reminders.
func (h *APIHandler) AddDiaryEntryHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req AddDiaryEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Date == "" || req.Activity == "" || req.Crop == "" {
		http.Error(w, "Date, activity and crop are required", http.StatusBadRequest)
		return
	}

	entry := store.DiaryEntry{
		UserID:   uid,
		Date:     req.Date,
		Activity: req.Activity,
		Crop:     req.Crop,
		Area:     req.Area,
		Notes:    req.Notes,
	}
	reminders, err := h.farm.AddEntry(&entry)
	if err != nil {
		log.Printf("Error adding diary entry for user %d: %v", uid, err)
		http.Error(w, "Failed to add diary entry", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AddDiaryEntryResponse{Entry: &entry, Reminders: reminders})
}

// ListDiaryEntriesHandler lists the user's diary, newest first.
func (h *APIHandler) ListDiaryEntriesHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	entries, err := h.farm.Entries(uid)
	if err != nil {
		log.Printf("Error listing diary entries for user %d: %v", uid, err)
		http.Error(w, "Failed to list diary entries", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(entries)
}

// ListRemindersHandler lists reminders; ?due=true narrows to uncompleted
// reminders whose time has arrived.
func (h *APIHandler) ListRemindersHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	dueOnly := r.URL.Query().Get("due") == "true"

	reminders, err := h.farm.Reminders(uid, dueOnly)
	if err != nil {
		log.Printf("Error listing reminders for user %d: %v", uid, err)
		http.Error(w, "Failed to list reminders", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(reminders)
}

// CompleteReminderHandler marks a reminder done.
func (h *APIHandler) CompleteReminderHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	reminderID := chi.URLParam(r, "reminderID")

	if err := h.farm.CompleteReminder(reminderID, uid); err != nil {
		log.Printf("Error completing reminder %s for user %d: %v", reminderID, uid, err)
		http.Error(w, "Reminder not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FarmProgressHandler returns the virtual farm derived from the diary.
func (h *APIHandler) FarmProgressHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	progress, err := h.farm.Progress(uid)
	if err != nil {
		log.Printf("Error computing farm progress for user %d: %v", uid, err)
		http.Error(w, "Failed to compute farm progress", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(progress)
}

// ListFarmerGroupsHandler lists all groups with member counts.
func (h *APIHandler) ListFarmerGroupsHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListFarmerGroups()
	if err != nil {
		log.Printf("Error listing farmer groups: %v", err)
		http.Error(w, "Failed to list farmer groups", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(groups)
}

// JoinFarmerGroupHandler adds the user to a group; joining twice is a no-op.
func (h *APIHandler) JoinFarmerGroupHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}

	if err := h.store.JoinFarmerGroup(groupID, uid); err != nil {
		log.Printf("Error joining group %d for user %d: %v", groupID, uid, err)
		http.Error(w, "Failed to join group", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LeaveFarmerGroupHandler removes the user from a group.
func (h *APIHandler) LeaveFarmerGroupHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}

	if err := h.store.LeaveFarmerGroup(groupID, uid); err != nil {
		log.Printf("Error leaving group %d for user %d: %v", groupID, uid, err)
		http.Error(w, "Failed to leave group", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
