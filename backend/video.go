package backend

import "context"

// VideoGenerator turns a prompt into a video
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, req *VideoRequest) (*VideoResult, error)
}

// VideoRequest is the input of a text-to-video call. Prompt is sent
// unchanged as the only instruction.
type VideoRequest struct {
	Prompt          string
	Model           string
	AspectRatio     string
	DurationSeconds int
	NegativePrompt  string
}

// VideoResult holds the video returned by the backend
type VideoResult struct {
	Data     []byte
	MIMEType string
	URI      string
	Model    string
}

// VideoGeneratorFunc adapts a function to the VideoGenerator interface
type VideoGeneratorFunc func(ctx context.Context, req *VideoRequest) (*VideoResult, error)

func (f VideoGeneratorFunc) GenerateVideo(ctx context.Context, req *VideoRequest) (*VideoResult, error) {
	return f(ctx, req)
}
