package adaptivecards

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

//go:embed resources/*.json
var resources embed.FS

var (
	loadOnce sync.Once
	cards    map[string]json.RawMessage
	names    []string
	loadErr  error
)

func load() {
	entries, err := resources.ReadDir("resources")
	if err != nil {
		loadErr = err
		return
	}
	cards = make(map[string]json.RawMessage, len(entries))
	for _, e := range entries {
		raw, err := resources.ReadFile(path.Join("resources", e.Name()))
		if err != nil {
			loadErr = err
			return
		}
		if !json.Valid(raw) {
			loadErr = fmt.Errorf("adaptive card %s is not valid JSON", e.Name())
			return
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		cards[name] = json.RawMessage(raw)
		names = append(names, name)
	}
	sort.Strings(names)
}

// Names returns the names of the embedded cards in sorted order.
func Names() ([]string, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	return append([]string(nil), names...), nil
}

// Card returns the embedded card name as an attachment.
func Card(name string) (activity.Attachment, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return activity.Attachment{}, loadErr
	}
	raw, ok := cards[name]
	if !ok {
		return activity.Attachment{}, fmt.Errorf("unknown adaptive card %q", name)
	}
	return activity.Attachment{ContentType: activity.ContentTypeAdaptiveCard, Content: raw}, nil
}
