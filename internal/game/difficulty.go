package game

type Difficulty struct {
	Name    string
	Msd     string
	Section string // Raw note data the beatmap was built from, if any
	Lanes   int
}

// LaneMap maps StepMania chart types to their lane count.
var LaneMap = map[string]int{
	"dance-single": 4,
	"dance-solo":   6,
	"dance-double": 8,
}
