package training

import (
	"sort"

	"github.com/Worcesters/basicfit/internal/models"
)

// Estimation constants. A session is excellent when at least ExcellentShare
// of its exercises were rated ExcellentEffort or harder.
const (
	CaloriesPerMinute = 5
	ExcellentEffort   = 8
	ExcellentShare    = 0.8
	favoriteMachines  = 3
)

// BuildUserStats summarizes completed sessions (with their exercises loaded)
// and the user's trackers. Machine names are looked up in names.
func BuildUserStats(sessions []models.Session, trackers []models.ProgressionTracker, names map[int64]string) models.UserStats {
	var st models.UserStats
	usage := make(map[int64]int)

	for _, s := range sessions {
		if s.Status != models.SessionCompleted {
			continue
		}
		st.CompletedSessions++
		if d := s.ActualDurationMinutes(); d != nil && *d > 0 {
			st.TotalMinutes += *d
		}
		if isExcellent(s.Exercises) {
			st.ExcellentSessions++
		}
		for _, e := range s.Exercises {
			usage[e.MachineID]++
			if e.WeightUsed != nil && *e.WeightUsed > st.RecordWeight {
				st.RecordWeight = *e.WeightUsed
			}
		}
	}
	st.EstimatedCalories = st.TotalMinutes * CaloriesPerMinute

	st.FavoriteMachines = make([]models.MachineUsage, 0, len(usage))
	for id, n := range usage {
		st.FavoriteMachines = append(st.FavoriteMachines, models.MachineUsage{MachineID: id, Name: names[id], Count: n})
	}
	sort.Slice(st.FavoriteMachines, func(i, j int) bool {
		a, b := st.FavoriteMachines[i], st.FavoriteMachines[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.MachineID < b.MachineID
	})
	if len(st.FavoriteMachines) > favoriteMachines {
		st.FavoriteMachines = st.FavoriteMachines[:favoriteMachines]
	}

	if len(trackers) > 0 {
		var sum float64
		for _, t := range trackers {
			sum += t.TotalProgression
		}
		st.AvgProgression = round2(sum / float64(len(trackers)))
	}
	return st
}

func isExcellent(entries []models.ExerciseEntry) bool {
	if len(entries) == 0 {
		return false
	}
	hard := 0
	for _, e := range entries {
		if e.PerceivedEffort != nil && *e.PerceivedEffort >= ExcellentEffort {
			hard++
		}
	}
	return float64(hard) >= ExcellentShare*float64(len(entries))
}
