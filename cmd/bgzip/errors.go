package main

import "errors"

var (
	errRefusingTTY = errors.New("refusing to write compressed data to a terminal (use -f to override)")
	errNoGzSuffix  = errors.New("input name doesn't end in .gz, can't derive an output name (use -c to write to stdout)")
)
