package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFallbackSurge     BookmarkType = "fallback_surge"
	BookmarkReserveCrash      BookmarkType = "reserve_crash"
	BookmarkRenewableRecovery BookmarkType = "renewable_recovery"
	BookmarkLowPower          BookmarkType = "low_power"
	BookmarkStableCharge      BookmarkType = "stable_charge"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

const (
	stableWindows   = 5
	stableFillMean  = 0.8
	stableFillStd   = 0.1
	lowPowerFill    = 0.1
	reserveCrashPct = 0.3
)

// BookmarkDetector detects interesting moments in a fleet's charge history.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentReservePeak  float64 // peak total reserve since the last crash
	recentRenewableMin float64 // lowest renewable share since the last recovery
	haveRenewableMin   bool
	lowPower           bool
	stableWindowsCount int // consecutive windows with high, even fill
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < stableWindows {
		historySize = stableWindows
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		for _, check := range []func(WindowStats) *Bookmark{
			bd.checkFallbackSurge,
			bd.checkReserveCrash,
			bd.checkRenewableRecovery,
		} {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}
	if b := bd.checkLowPower(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkStableCharge(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if stats.TotalReserve > bd.recentReservePeak {
		bd.recentReservePeak = stats.TotalReserve
	}
	if produced(stats) > 0 && (!bd.haveRenewableMin || stats.RenewableFrac < bd.recentRenewableMin) {
		bd.recentRenewableMin = stats.RenewableFrac
		bd.haveRenewableMin = true
	}

	return bookmarks
}

func produced(s WindowStats) float64 {
	return s.Renewable + s.NonRenewable
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

// checkFallbackSurge fires when reserves were tapped on more than twice the usual number of ticks.
func (bd *BookmarkDetector) checkFallbackSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Fallbacks
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Fallbacks) > avg*2 && stats.Fallbacks >= 3 {
		return &Bookmark{
			Type:        BookmarkFallbackSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d fallback ticks is %.1fx average (%.1f)", stats.Fallbacks, float64(stats.Fallbacks)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkReserveCrash(stats WindowStats) *Bookmark {
	if bd.recentReservePeak <= 0 {
		return nil
	}

	threshold := bd.recentReservePeak * (1 - reserveCrashPct)
	if stats.TotalReserve < threshold {
		peak := bd.recentReservePeak
		bd.recentReservePeak = stats.TotalReserve

		return &Bookmark{
			Type:        BookmarkReserveCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Reserves fell from %.0f to %.0f (%.0f%% drop)", peak, stats.TotalReserve, (1-stats.TotalReserve/peak)*100),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkRenewableRecovery(stats WindowStats) *Bookmark {
	if !bd.haveRenewableMin || bd.recentRenewableMin > 0.2 || produced(stats) <= 0 {
		return nil
	}

	if stats.RenewableFrac >= 0.6 {
		low := bd.recentRenewableMin
		bd.recentRenewableMin = stats.RenewableFrac

		return &Bookmark{
			Type:        BookmarkRenewableRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Renewable share recovered from %.0f%% to %.0f%%", low*100, stats.RenewableFrac*100),
		}
	}
	return nil
}

// checkLowPower fires once when the weakest tenth of the fleet drops below lowPowerFill
// and re-arms after it climbs back above twice that.
func (bd *BookmarkDetector) checkLowPower(stats WindowStats) *Bookmark {
	if bd.lowPower {
		if stats.FillP10 > lowPowerFill*2 {
			bd.lowPower = false
		}
		return nil
	}
	if stats.FillP10 < lowPowerFill {
		bd.lowPower = true
		return &Bookmark{
			Type:        BookmarkLowPower,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Fleet p10 fill %.0f%%", stats.FillP10*100),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStableCharge(stats WindowStats) *Bookmark {
	if stats.FillMean >= stableFillMean && stats.FillStd <= stableFillStd && stats.Fallbacks == 0 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == stableWindows {
		return &Bookmark{
			Type:        BookmarkStableCharge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Fleet held %.0f%% mean fill on renewables for %d windows", stats.FillMean*100, stableWindows),
		}
	}
	return nil
}
