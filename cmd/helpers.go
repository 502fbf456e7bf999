package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/codec"
	"github.com/f0rbit/corpus/internal/app"
)

// openStore opens the JSON store the snapshot commands operate on.
// Payloads are arbitrary JSON, so the store is typed as any.
func openStore(deps *app.Deps, storeID string) *corpus.Store[any] {
	return corpus.OpenStore[any](deps.Corpus, storeID, codec.JSON[any](nil), nil)
}

// readPayload reads the JSON payload for a put: from the named file, or from
// stdin when the argument is absent or "-".
func readPayload(args []string) (any, error) {
	var raw []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}
	return payload, nil
}

// parseParents parses repeated --parent values of the form "store@version".
func parseParents(values []string) ([]corpus.ParentRef, error) {
	var parents []corpus.ParentRef
	for _, v := range values {
		store, version, ok := strings.Cut(v, "@")
		if !ok || store == "" || version == "" {
			return nil, fmt.Errorf("invalid parent %q: expected store@version", v)
		}
		parents = append(parents, corpus.ParentRef{StoreID: store, Version: version})
	}
	return parents, nil
}
