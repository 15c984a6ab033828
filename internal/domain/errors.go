package domain

import "errors"

var (
	ErrServiceNotExists = errors.New("service does not exist")
	ErrServiceExists    = errors.New("service already exists")
	ErrLayerNotLoaded   = errors.New("layer not loaded")
	ErrPresetNotExists  = errors.New("preset does not exist")
)
