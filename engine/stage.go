package engine

// Stage is a step of snapshot assembly
type Stage int

const (
	StageStart Stage = iota
	StageTagHeaderValidated
	StageGameGlobalsValidated
	StageObjectHeaderValidated
	StagePlayerHeaderValidated
	StagePlayerGlobalsValidated
	StageTimeGlobalsValidated
	StageEntriesRead
	StageTagsResolved
	StageComplete
)

var stageNames = [...]string{
	StageStart:                  "Start",
	StageTagHeaderValidated:     "TagHeaderValidated",
	StageGameGlobalsValidated:   "GameGlobalsValidated",
	StageObjectHeaderValidated:  "ObjectHeaderValidated",
	StagePlayerHeaderValidated:  "PlayerHeaderValidated",
	StagePlayerGlobalsValidated: "PlayerGlobalsValidated",
	StageTimeGlobalsValidated:   "TimeGlobalsValidated",
	StageEntriesRead:            "EntriesRead",
	StageTagsResolved:           "TagsResolved",
	StageComplete:               "Complete",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "Unknown"
}
