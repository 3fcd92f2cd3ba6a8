package models

import "time"

// Settings допуски движка. Все расстояния в единицах комнаты.
type Settings struct {
	FixtureSnapDistance float64 // примыкание к соседнему модулю
	WallSnapDistance    float64 // зазор до стены
	EndpointSnapRadius  float64 // рисование стен
	MinWallLength       float64

	DefaultWallThickness float64
	// StandardWallThickness на сколько отрисованные стандартные стены выходят
	// за углы комнаты. Центр двери на стандартной стене считается по этой
	// длине, чтобы совпадать с нарисованным проемом.
	StandardWallThickness float64

	ClearanceDepthFactor float64
	ClearanceWidthFactor float64

	// WallSpanTolerance расширяет проверку коллизии за концы стены (t в [-tol, 1+tol]).
	WallSpanTolerance float64
	// RestingTolerance считается ли модуль прислоненным к стандартной стене.
	RestingTolerance float64

	FallbackGridStep float64
	RotationStep     float64
	AlignToWalls     bool

	DragTick time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		FixtureSnapDistance:   8,
		WallSnapDistance:      12,
		EndpointSnapRadius:    12,
		MinWallLength:         20,
		DefaultWallThickness:  6,
		StandardWallThickness: 6,
		ClearanceDepthFactor:  1.5,
		ClearanceWidthFactor:  1.0,
		WallSpanTolerance:     0.1,
		RestingTolerance:      1,
		FallbackGridStep:      50,
		RotationStep:          15,
		AlignToWalls:          true,
		DragTick:              16 * time.Millisecond,
	}
}
