package video

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProbeResult is the subset of ffprobe output the pipeline relies on.
type ProbeResult struct {
	Duration   float64
	Width      int
	Height     int
	Codec      string
	FrameRate  float64
	PixFmt     string
	HasAudio   bool
	AudioCodec string
	SampleRate int
	Size       int64
}

// SameFormat reports whether two clips can be joined with stream copy.
func (p *ProbeResult) SameFormat(o *ProbeResult) bool {
	return p.Codec == o.Codec &&
		p.Width == o.Width &&
		p.Height == o.Height &&
		abs(p.FrameRate-o.FrameRate) < 0.01 &&
		p.HasAudio == o.HasAudio
}

// Format is a short human description, e.g. "h264 1080x1920@30".
func (p *ProbeResult) Format() string {
	return fmt.Sprintf("%s %dx%d@%g", p.Codec, p.Width, p.Height, p.FrameRate)
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		PixFmt       string `json:"pix_fmt"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		SampleRate   string `json:"sample_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

// parseProbe decodes `ffprobe -print_format json -show_format -show_streams`.
func parseProbe(data []byte) (*ProbeResult, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: bad ffprobe output: %v", ErrUndecodable, err)
	}

	res := &ProbeResult{}
	videoFound := false
	streamDuration := 0.0
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if videoFound {
				continue
			}
			videoFound = true
			res.Codec = s.CodecName
			res.Width = s.Width
			res.Height = s.Height
			res.PixFmt = s.PixFmt
			res.FrameRate = parseRate(s.AvgFrameRate)
			if res.FrameRate == 0 {
				res.FrameRate = parseRate(s.RFrameRate)
			}
			streamDuration, _ = strconv.ParseFloat(s.Duration, 64)
		case "audio":
			if res.HasAudio {
				continue
			}
			res.HasAudio = true
			res.AudioCodec = s.CodecName
			res.SampleRate, _ = strconv.Atoi(s.SampleRate)
		}
	}
	if !videoFound {
		return nil, fmt.Errorf("%w: no video stream", ErrUndecodable)
	}

	res.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	if res.Duration <= 0 {
		res.Duration = streamDuration
	}
	if res.Duration <= 0 {
		return nil, fmt.Errorf("%w: unknown duration", ErrUndecodable)
	}
	res.Size, _ = strconv.ParseInt(out.Format.Size, 10, 64)
	return res, nil
}

// parseRate turns "30000/1001" or "30" into frames per second.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
