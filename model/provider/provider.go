// Package provider selects the language model backing the orchestrator from
// configuration and API keys in the environment.
package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/model"
	"github.com/hupe1980/loanmesh/model/anthropic"
	"github.com/hupe1980/loanmesh/model/gemini"
	"github.com/hupe1980/loanmesh/model/openai"
)

// Provider names accepted by Settings.Provider.
const (
	Auto      = "auto"
	Gemini    = "gemini"
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Mock      = "mock"
)

// Settings selects and tunes the provider.
type Settings struct {
	// Provider is one of the constants above. Empty means Auto.
	Provider    string
	Model       string
	Temperature float64
	Stream      bool
	// Getenv reads API keys and model overrides (defaults to os.Getenv).
	Getenv func(string) string
}

// Selection is the chosen responder and the model behind it.
type Selection struct {
	Responder core.Responder
	Info      model.Info
}

// Select builds the responder. Auto tries Gemini, OpenAI and Anthropic in
// that order and falls back to echoing the stage draft when no key is set.
func Select(ctx context.Context, s Settings) (Selection, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	name := strings.ToLower(strings.TrimSpace(s.Provider))
	if name == "" || name == Auto {
		name = detect(getenv)
	}

	var m model.Model
	switch name {
	case Gemini:
		key := firstNonEmpty(getenv("GOOGLE_API_KEY"), getenv("GEMINI_API_KEY"))
		if key == "" {
			return Selection{}, fmt.Errorf("provider %s: GOOGLE_API_KEY is not set", name)
		}
		gm, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			o.APIKey = key
			o.Temperature = s.Temperature
			if id := firstNonEmpty(s.Model, getenv("GOOGLE_MODEL")); id != "" {
				o.Model = id
			}
		})
		if err != nil {
			return Selection{}, err
		}
		m = gm

	case OpenAI:
		key := getenv("OPENAI_API_KEY")
		if key == "" {
			return Selection{}, fmt.Errorf("provider %s: OPENAI_API_KEY is not set", name)
		}
		m = openai.NewModel(func(o *openai.Options) {
			o.APIKey = key
			o.Temperature = s.Temperature
			o.Model = firstNonEmpty(s.Model, getenv("OPENAI_MODEL"), "gpt-4")
		})

	case Anthropic:
		key := getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return Selection{}, fmt.Errorf("provider %s: ANTHROPIC_API_KEY is not set", name)
		}
		m = anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = key
			o.Temperature = s.Temperature
			if id := firstNonEmpty(s.Model, getenv("ANTHROPIC_MODEL")); id != "" {
				o.Model = anthropicsdk.Model(id)
			}
		})

	case Mock:
		return Selection{Responder: model.DraftResponder{}, Info: model.Info{Name: "draft", Provider: Mock}}, nil

	default:
		return Selection{}, fmt.Errorf("unknown model provider %q", s.Provider)
	}

	return Selection{
		Responder: model.NewResponder(m, func(o *model.ResponderOptions) { o.Stream = s.Stream }),
		Info:      m.Info(),
	}, nil
}

func detect(getenv func(string) string) string {
	switch {
	case firstNonEmpty(getenv("GOOGLE_API_KEY"), getenv("GEMINI_API_KEY")) != "":
		return Gemini
	case getenv("OPENAI_API_KEY") != "":
		return OpenAI
	case getenv("ANTHROPIC_API_KEY") != "":
		return Anthropic
	default:
		return Mock
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
