package planner

import (
	"fmt"
	"strconv"
	"strings"

	"cutline/internal/transcode"
)

// ConcatRequest joins planned clips in one filter graph. Each clip is opened
// as its own input; clips with silent audio get an extra lavfi input appended
// after the clip inputs. Outputs are mapped from [outv] and [outa].
func (p *Planner) ConcatRequest(label string, directives []ClipDirective, enc transcode.Encode, output string) transcode.Request {
	inputs := make([]transcode.Input, 0, len(directives)*2)
	for _, d := range directives {
		inputs = append(inputs, transcode.Input{
			Path:     d.Clip.SourcePath,
			Seek:     d.Seek,
			Duration: d.SourceDuration,
		})
	}

	chains := make([]string, 0, len(directives)*2+1)
	var pads strings.Builder
	for i, d := range directives {
		idx := strconv.Itoa(i)
		chains = append(chains, "["+idx+":v]"+d.VideoFilter()+"[v"+idx+"]")
		audioIn := idx
		if d.SilentAudio {
			audioIn = strconv.Itoa(len(inputs))
			inputs = append(inputs, transcode.Input{
				Path:     p.SilenceSource(),
				Format:   "lavfi",
				Duration: d.TimelineDuration,
			})
		}
		chains = append(chains, "["+audioIn+":a]"+d.AudioFilter()+"[a"+idx+"]")
		pads.WriteString("[v" + idx + "][a" + idx + "]")
	}
	chains = append(chains, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[outv][outa]", pads.String(), len(directives)))

	return transcode.Request{
		Label:       label,
		Inputs:      inputs,
		FilterGraph: strings.Join(chains, ";"),
		Maps:        []string{"[outv]", "[outa]"},
		Encode:      enc,
		Output:      output,
	}
}
