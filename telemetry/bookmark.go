package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/neuralang/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction      BookmarkType = "extinction"
	BookmarkSpeechOnset     BookmarkType = "speech_onset"
	BookmarkLongGeneration  BookmarkType = "long_generation"
	BookmarkPopulationCrash BookmarkType = "population_crash"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentPeak int // peak being count since the last crash or reworld
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest window stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Speech onset: heard count jumps above a multiple of the rolling average
		if b := bd.checkSpeechOnset(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// A reworld resets the population, so a drop across one is not a crash
	if stats.Reworlds > 0 {
		bd.recentPeak = stats.Beings
	} else if b := bd.checkPopulationCrash(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if stats.Beings > bd.recentPeak {
		bd.recentPeak = stats.Beings
	}

	return bookmarks
}

// CheckGeneration analyzes a finished generation against the run history.
// history must not yet include g.
func (bd *BookmarkDetector) CheckGeneration(g GenerationStats, history *GenerationHistory) []Bookmark {
	var bookmarks []Bookmark
	if g.Extinction {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkExtinction,
			Tick:        g.EndTick,
			Generation:  g.Generation,
			Description: fmt.Sprintf("No survivors after %d ticks", g.Length),
		})
	}
	if b := bd.checkLongGeneration(g, history); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkSpeechOnset(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.SpeechletsHeard
	}
	avg := float64(total) / float64(len(history))

	if stats.SpeechletsHeard < bd.cfg.SpeechOnset.MinHeard {
		return nil
	}
	if avg > 0 && float64(stats.SpeechletsHeard) <= avg*bd.cfg.SpeechOnset.Multiplier {
		return nil
	}

	return &Bookmark{
		Type:        BookmarkSpeechOnset,
		Tick:        stats.WindowEndTick,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("%d speechlets heard vs rolling average %.1f", stats.SpeechletsHeard, avg),
	}
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Beings)/float64(bd.recentPeak)
	if dropPercent > bd.cfg.PopulationCrash.DropPercent && stats.Beings <= bd.recentPeak-bd.cfg.PopulationCrash.MinDrop {
		// Reset peak after crash
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Beings

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Beings crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Beings),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkLongGeneration(g GenerationStats, history *GenerationHistory) *Bookmark {
	if history == nil || history.Count() < bd.cfg.LongGeneration.MinGenerations {
		return nil
	}
	mean, _ := history.MeanLength()
	if mean <= 0 || float64(g.Length) <= mean*bd.cfg.LongGeneration.Multiplier {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkLongGeneration,
		Tick:        g.EndTick,
		Generation:  g.Generation,
		Description: fmt.Sprintf("Generation lasted %d ticks, %.1fx the mean %.0f", g.Length, float64(g.Length)/mean, mean),
	}
}
