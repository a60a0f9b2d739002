package models

// Mood is the content category a post is filed under.
type Mood string

const (
	MoodCalm      Mood = "calm"
	MoodMotivated Mood = "motivated"
	MoodLow       Mood = "low"
	MoodEntertain Mood = "entertain"
	MoodEnergetic Mood = "energetic"
	MoodDiscuss   Mood = "discuss"
)

// MoodAll is the listing wildcard. It is never stored on a post.
const MoodAll = "all"

// PostMoods lists every mood a post may carry.
var PostMoods = []Mood{MoodCalm, MoodMotivated, MoodLow, MoodEntertain, MoodEnergetic, MoodDiscuss}

// Valid reports whether m is a storable post mood.
func (m Mood) Valid() bool {
	for _, candidate := range PostMoods {
		if m == candidate {
			return true
		}
	}
	return false
}

// JourneyMood is how the user feels when starting a journey.
type JourneyMood string

const (
	JourneyMoodCalm      JourneyMood = "calm"
	JourneyMoodFocused   JourneyMood = "focused"
	JourneyMoodMotivated JourneyMood = "motivated"
	JourneyMoodLow       JourneyMood = "low"
	JourneyMoodHappy     JourneyMood = "happy"
	JourneyMoodStressed  JourneyMood = "stressed"
)

var JourneyMoods = []JourneyMood{
	JourneyMoodCalm, JourneyMoodFocused, JourneyMoodMotivated,
	JourneyMoodLow, JourneyMoodHappy, JourneyMoodStressed,
}

func (m JourneyMood) Valid() bool {
	for _, candidate := range JourneyMoods {
		if m == candidate {
			return true
		}
	}
	return false
}

// JourneyPurpose is what the user wants out of a journey.
type JourneyPurpose string

const (
	PurposeLearn     JourneyPurpose = "learn"
	PurposeRelax     JourneyPurpose = "relax"
	PurposeDiscuss   JourneyPurpose = "discuss"
	PurposeInspire   JourneyPurpose = "inspire"
	PurposeEntertain JourneyPurpose = "entertain"
)

var JourneyPurposes = []JourneyPurpose{PurposeLearn, PurposeRelax, PurposeDiscuss, PurposeInspire, PurposeEntertain}

func (p JourneyPurpose) Valid() bool {
	for _, candidate := range JourneyPurposes {
		if p == candidate {
			return true
		}
	}
	return false
}

// JourneyDurations are the allowed journey lengths in minutes.
var JourneyDurations = []int{5, 10, 20, 30}

// ValidJourneyDuration reports whether minutes is one of JourneyDurations.
func ValidJourneyDuration(minutes int) bool {
	for _, d := range JourneyDurations {
		if minutes == d {
			return true
		}
	}
	return false
}
