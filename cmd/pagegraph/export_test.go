package main

var (
	ProgressLine = progressLine
	ShortSource  = shortSource
	HumanBytes   = humanBytes
)
