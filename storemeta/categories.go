package storemeta

import "strings"

// Store genres arrive as "Game;Action" style strings. Matching drops a
// leading "Game" segment and scans each network's keyword table in order,
// most specific entries first.

// NetworkCategories is one store genre translated into each network's own
// category vocabulary.
type NetworkCategories struct {
	BigoAds    string `json:"bigoads"`
	IronSource string `json:"ironsource"`
	Pangle     int    `json:"pangle"`
	Fyber      string `json:"fyber"`
}

// CategoriesFor maps a store genre into every network that wants a
// category on app create.
func CategoriesFor(genre string) NetworkCategories {
	return NetworkCategories{
		BigoAds:    BigoAdsCategory(genre),
		IronSource: IronSourceTaxonomy(genre),
		Pangle:     PangleCategoryCode(genre),
		Fyber:      FyberCategory(genre),
	}
}

func searchText(genre string) string {
	raw := strings.Split(genre, ";")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if parts[0] == "game" && len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, " ")
}

type categoryRule struct {
	keywords []string
	value    string
}

func matchCategory(rules []categoryRule, genre, fallback string) string {
	text := searchText(genre)
	if text == "" {
		return fallback
	}
	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.value
			}
		}
	}
	return fallback
}

var bigoadsRules = []categoryRule{
	{[]string{"casino", "gambling", "slots"}, "GAME_CASINO"},
	{[]string{"sports", "sport"}, "GAME_SPORTS"},
	{[]string{"educational", "education", "learn"}, "GAME_EDUCATIONAL"},
	{[]string{"music", "rhythm"}, "GAME_MUSIC"},
	{[]string{"simulation", "simulator", "sim"}, "GAME_SIMULATION"},
	{[]string{"role playing", "role-playing", "rpg", "roleplay"}, "GAME_ROLE_PLAYING"},
	{[]string{"action"}, "GAME_ACTION"},
	{[]string{"adventure", "adventures"}, "GAME_ADVENTURE"},
	{[]string{"racing", "race"}, "GAME_RACING"},
	{[]string{"strategy", "strategic"}, "GAME_STRATEGY"},
	{[]string{"card", "cards"}, "GAME_CARD"},
	{[]string{"board"}, "GAME_BOARD"},
	{[]string{"trivia"}, "GAME_TRIVIA"},
	{[]string{"word", "words"}, "GAME_WORD"},
	{[]string{"puzzle", "puzzles"}, "GAME_PUZZLE"},
	{[]string{"arcade"}, "GAME_ARCADE"},
	{[]string{"casual"}, "GAME_CASUAL"},
}

// BigoAdsCategory maps a store genre to a BigoAds GAME_* category code.
func BigoAdsCategory(genre string) string {
	return matchCategory(bigoadsRules, genre, "GAME_CASUAL")
}

var ironsourceRules = []categoryRule{
	{[]string{"bingo"}, "bingo"},
	{[]string{"blackjack"}, "blackjack"},
	{[]string{"poker"}, "poker"},
	{[]string{"slots"}, "slots"},
	{[]string{"sports betting"}, "sports_betting"},
	{[]string{"casino", "gambling"}, "other_casino"},
	{[]string{"tower defense"}, "tower_defense"},
	{[]string{"platformer"}, "platformer"},
	{[]string{"endless runner"}, "endless_runner"},
	{[]string{"shoot", "fps", "shooter"}, "other_shooter"},
	{[]string{"arcade", ".io"}, "other_arcade"},
	{[]string{"match 3"}, "match_3"},
	{[]string{"bubble shooter"}, "bubble_shooter"},
	{[]string{"word", "words"}, "word"},
	{[]string{"trivia"}, "trivia"},
	{[]string{"crossword"}, "crossword"},
	{[]string{"jigsaw"}, "jigsaw"},
	{[]string{"solitaire"}, "solitaire"},
	{[]string{"action puzzle"}, "action_puzzle"},
	{[]string{"puzzle", "puzzles"}, "puzzle"},
	{[]string{"casual"}, "other_casual"},
	{[]string{"farming"}, "farming"},
	{[]string{"cooking", "time management"}, "cooking_time_management"},
	{[]string{"tycoon", "crafting"}, "tycoon_crafting"},
	{[]string{"breeding"}, "breeding"},
	{[]string{"sandbox"}, "sandbox"},
	{[]string{"idle simulation"}, "idle_simulation"},
	{[]string{"simulation", "simulator", "sim"}, "other_simulation"},
	{[]string{"mmorpg"}, "mmorpg"},
	{[]string{"action rpg"}, "action_rpg"},
	{[]string{"idle rpg"}, "idle_rpg"},
	{[]string{"puzzle rpg"}, "puzzle_rpg"},
	{[]string{"turn-based rpg", "turn based rpg"}, "turn_based_rpg"},
	{[]string{"fighting"}, "fighting"},
	{[]string{"survival"}, "survival"},
	{[]string{"role playing", "rpg", "roleplay"}, "other_rpg"},
	{[]string{"moba"}, "moba"},
	{[]string{"4x"}, "4x_strategy"},
	{[]string{"idle strategy"}, "idle_strategy"},
	{[]string{"build & battle", "build and battle"}, "build_battle"},
	{[]string{"sync. battler", "sync battler"}, "sync_battler"},
	{[]string{"strategy", "strategic"}, "other_strategy"},
	{[]string{"adventure", "adventures"}, "adventures"},
	{[]string{"action"}, "other_arcade"},
	{[]string{"simulation racing"}, "simulation_racing"},
	{[]string{"casual racing"}, "casual_racing"},
	{[]string{"racing", "race"}, "other_racing"},
	{[]string{"casual sports"}, "casual_sports"},
	{[]string{"licensed sports"}, "licensed_sports"},
	{[]string{"sports", "sport"}, "sports"},
	{[]string{"music", "rhythm"}, "music_band"},
	{[]string{"educational", "education", "learn"}, "education"},
	{[]string{"card", "cards"}, "non_casino_card_game"},
	{[]string{"board"}, "board"},
	{[]string{"card battler"}, "card_battler"},
	{[]string{"mid-core", "midcore"}, "other_mid_core"},
}

// IronSourceTaxonomy maps a store genre to the ironSource taxonomy API
// value (lowercase with underscores).
func IronSourceTaxonomy(genre string) string {
	return matchCategory(ironsourceRules, genre, "other")
}

type pangleRule struct {
	keywords []string
	code     int
}

var pangleRules = []pangleRule{
	{[]string{"match 3"}, 121330},
	{[]string{"puzzle", "puzzles"}, 121333},
	{[]string{"word", "words"}, 121337},
	{[]string{"quiz", "trivia"}, 121332},
	{[]string{"card", "cards"}, 121343},
	{[]string{"casual card"}, 121336},
	{[]string{"merge"}, 121329},
	{[]string{"idle"}, 121331},
	{[]string{"arcade runner", "endless runner"}, 121335},
	{[]string{"music", "rhythm"}, 121334},
	{[]string{"role playing", "rpg", "roleplay"}, 121319},
	{[]string{"action rpg"}, 121319},
	{[]string{"strategy", "strategic", "tower defense"}, 121320},
	{[]string{"moba"}, 121339},
	{[]string{"shooting", "shooter", "fps"}, 121323},
	{[]string{"racing", "race"}, 121324},
	{[]string{"sports", "sport"}, 121325},
	{[]string{"simulation", "simulator", "sim"}, 121326},
	{[]string{"action"}, 121327},
	{[]string{"adventure", "adventures"}, 121341},
	{[]string{"sandbox"}, 121342},
	{[]string{"social game"}, 121322},
	{[]string{"casual"}, 121344},
	{[]string{"game"}, 121315},
}

// PangleCategoryCode maps a store genre to Pangle's numeric app category
// code. 121344 is Games-Others.
func PangleCategoryCode(genre string) int {
	text := searchText(genre)
	if text == "" {
		return 121344
	}
	for _, rule := range pangleRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.code
			}
		}
	}
	return 121344
}

var fyberRules = []categoryRule{
	{[]string{"arcade", "arcade & action"}, "Games - Arcade & Action"},
	{[]string{"brain", "puzzle", "puzzles"}, "Games - Brain & Puzzle"},
	{[]string{"cards", "casino", "gambling"}, "Games - Cards & Casino"},
	{[]string{"casual"}, "Games - Casual"},
	{[]string{"racing", "race"}, "Games - Racing"},
	{[]string{"sports", "sport"}, "Games - Sports Games"},
	{[]string{"action"}, "Games - Arcade & Action"},
	{[]string{"adventure"}, "Adventure"},
	{[]string{"board"}, "Board"},
	{[]string{"card"}, "Games - Cards"},
	{[]string{"educational", "education"}, "Educational"},
	{[]string{"family"}, "Family"},
	{[]string{"music", "rhythm"}, "Music Games"},
	{[]string{"role playing", "rpg", "roleplay"}, "Role Playing"},
	{[]string{"simulation", "simulator", "sim"}, "Simulation"},
	{[]string{"strategy", "strategic"}, "Strategy"},
	{[]string{"trivia"}, "Trivia"},
	{[]string{"word", "words"}, "Word Games"},
	{[]string{"books", "reference"}, "Books & Reference"},
	{[]string{"business"}, "Business"},
	{[]string{"comics"}, "Comics"},
	{[]string{"communication"}, "Communication"},
	{[]string{"entertainment"}, "Entertainment"},
	{[]string{"finance"}, "Finance"},
	{[]string{"health", "fitness"}, "Health & Fitness"},
	{[]string{"lifestyle"}, "Lifestyle"},
	{[]string{"medical"}, "Medical"},
	{[]string{"music & audio", "music"}, "Music & Audio"},
	{[]string{"news", "magazines"}, "News & Magazines"},
	{[]string{"personalization"}, "Personalization"},
	{[]string{"photography"}, "Photography"},
	{[]string{"productivity"}, "Productivity"},
	{[]string{"shopping"}, "Shopping"},
	{[]string{"social"}, "Social"},
	{[]string{"sports"}, "Sports"},
	{[]string{"tools"}, "Tools"},
	{[]string{"transportation"}, "Transportation"},
	{[]string{"travel", "local"}, "Travel & Local"},
	{[]string{"weather"}, "Weather"},
}

// FyberCategory maps a store genre to Fyber's category list, which wants
// the exact display string.
func FyberCategory(genre string) string {
	return matchCategory(fyberRules, genre, "Games - Casual")
}
