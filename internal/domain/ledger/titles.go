package ledger

import (
	"time"

	"github.com/devderby/devderby/internal/domain/model"
)

// RankBand maps a minimum total score to a rank title.
type RankBand struct {
	MinScore int
	Name     string
	Icon     string
}

// rankBands is the fixed monotonic score-band table, lowest first. Scores
// below the first band (negative totals) still map to the first band.
var rankBands = []RankBand{
	{MinScore: 0, Name: "Code Novice", Icon: "🌱"},
	{MinScore: 100, Name: "Keyboard Apprentice", Icon: "⌨️"},
	{MinScore: 250, Name: "Commit Cadet", Icon: "📦"},
	{MinScore: 500, Name: "Merge Wrangler", Icon: "🔀"},
	{MinScore: 800, Name: "Pipeline Pilot", Icon: "🛫"},
	{MinScore: 1200, Name: "Refactor Ronin", Icon: "⚔️"},
	{MinScore: 1700, Name: "Release Commander", Icon: "🚀"},
	{MinScore: 2300, Name: "Apex Committer", Icon: "👑"},
}

// RankBands returns a copy of the score-band table.
func RankBands() []RankBand {
	out := make([]RankBand, len(rankBands))
	copy(out, rankBands)
	return out
}

// RankTitle maps a total score onto the score-band table.
func RankTitle(totalScore int) model.Title {
	band := rankBands[0]
	for _, b := range rankBands {
		if totalScore >= b.MinScore {
			band = b
		}
	}
	return model.Title{Name: band.Name, Icon: band.Icon, Type: model.TitleTypeRank}
}

// PrimaryTitle derives the title shown for a player: an unexpired shame
// title wins, otherwise the rank band for the current total. Pure; does not
// mutate the player.
func PrimaryTitle(p *model.PlayerScore, now time.Time) model.Title {
	for _, t := range p.Titles {
		if t.Type == model.TitleTypeShame && t.Active(now) {
			return t
		}
	}
	return RankTitle(p.TotalScore)
}
