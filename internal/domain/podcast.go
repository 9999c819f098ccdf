package domain

import "time"

// RunMode tells the pipeline who triggered it.
type RunMode string

const (
	ModeInteractive RunMode = "interactive"
	ModeScheduled   RunMode = "scheduled"
)

// Request carries the arguments of one pipeline invocation.
type Request struct {
	City    string
	VoiceID string
	Mode    RunMode
}

// AudioArtifact is a synthesized audio file owned by the storage directory.
type AudioArtifact struct {
	Filename string
	Path     string
	Size     int64
}

// Episode is the outcome of a successful pipeline run.
type Episode struct {
	City      string
	VoiceID   string
	Script    string
	Audio     AudioArtifact
	AudioURL  string
	Mode      RunMode
	CreatedAt time.Time
}

// ScheduledJob describes a recurring daily podcast for a city.
type ScheduledJob struct {
	Key     string
	City    string
	VoiceID string
	Hour    int
	Minute  int
	LastRun time.Time
}
