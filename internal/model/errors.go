package model

import "github.com/rotisserie/eris"

// Fixture authoring defects. Both are fatal at load time: a broken fixture
// invalidates every result derived from it, so loaders must surface these
// instead of degrading.
var (
	ErrMalformedManifest = eris.New("malformed manifest")
	ErrMalformedScenario = eris.New("malformed scenario")
)
