package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Epsilon гасит погрешность float при сравнении границ.
const Epsilon = 1e-6

// ============================================================
// Points & segments
// ============================================================

func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// DistanceToSegment расстояние от p до отрезка a-b.
func DistanceToSegment(p, a, b orb.Point) float64 {
	return planar.DistanceFromSegment(a, b, p)
}

// LineParameter параметр t основания перпендикуляра из p на прямую a-b
// (t=0 в a, t=1 в b), без ограничения.
func LineParameter(p, a, b orb.Point) float64 {
	dx := b.X() - a.X()
	dy := b.Y() - a.Y()
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0
	}
	return ((p.X()-a.X())*dx + (p.Y()-a.Y())*dy) / lenSq
}

// PointAt возвращает a + t*(b-a).
func PointAt(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a.X() + t*(b.X()-a.X()), a.Y() + t*(b.Y()-a.Y())}
}

// ProjectOntoSegment проекция p на отрезок a-b, t ограничен [0,1].
func ProjectOntoSegment(p, a, b orb.Point) (orb.Point, float64) {
	t := Clamp(LineParameter(p, a, b), 0, 1)
	return PointAt(a, b, t), t
}

// DistanceToLine расстояние от p до бесконечной прямой через a и b.
func DistanceToLine(p, a, b orb.Point) float64 {
	dx := b.X() - a.X()
	dy := b.Y() - a.Y()
	length := math.Hypot(dx, dy)
	if length == 0 {
		return Distance(p, a)
	}
	return math.Abs(dx*(a.Y()-p.Y())-dy*(a.X()-p.X())) / length
}

// SegmentsIntersect ищет точку пересечения отрезков a1-a2 и b1-b2.
// Коллинеарные наложения не считаются пересечением.
func SegmentsIntersect(a1, a2, b1, b2 orb.Point) (orb.Point, bool) {
	rx, ry := a2.X()-a1.X(), a2.Y()-a1.Y()
	sx, sy := b2.X()-b1.X(), b2.Y()-b1.Y()

	denom := rx*sy - ry*sx
	if math.Abs(denom) < 1e-12 {
		return orb.Point{}, false
	}

	qx, qy := b1.X()-a1.X(), b1.Y()-a1.Y()
	t := (qx*sy - qy*sx) / denom
	u := (qx*ry - qy*rx) / denom
	if t < -Epsilon || t > 1+Epsilon || u < -Epsilon || u > 1+Epsilon {
		return orb.Point{}, false
	}
	return PointAt(a1, a2, t), true
}

// ============================================================
// Directions & angles
// ============================================================

// Direction единичный вектор от a к b, (0,0) для вырожденного отрезка.
func Direction(a, b orb.Point) orb.Point {
	dx := b.X() - a.X()
	dy := b.Y() - a.Y()
	length := math.Hypot(dx, dy)
	if length == 0 {
		return orb.Point{}
	}
	return orb.Point{dx / length, dy / length}
}

// Normal поворот направления на +90° (экранные координаты, y вниз).
func Normal(dir orb.Point) orb.Point {
	return orb.Point{-dir.Y(), dir.X()}
}

// Heading угол вектора в градусах, [0,360).
func Heading(v orb.Point) float64 {
	return NormalizeAngle(math.Atan2(v.Y(), v.X()) * 180 / math.Pi)
}

func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360-Epsilon {
		deg = 0
	}
	return deg
}

// SnapAngle округляет угол до ближайшего кратного step.
func SnapAngle(deg, step float64) float64 {
	if step <= 0 {
		return NormalizeAngle(deg)
	}
	return NormalizeAngle(math.Round(deg/step) * step)
}

// Rotate поворачивает p вокруг pivot на deg градусов.
func Rotate(p, pivot orb.Point, deg float64) orb.Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx := p.X() - pivot.X()
	dy := p.Y() - pivot.Y()
	return orb.Point{
		pivot.X() + dx*cos - dy*sin,
		pivot.Y() + dx*sin + dy*cos,
	}
}

// ============================================================
// Rectangles
// ============================================================

// RotatedRect прямоугольник Width x Height вокруг Center. Angle задаёт
// направление оси Height в градусах, ось Width повернута на Angle-90.
// При Angle 90 прямоугольник выровнен по осям.
type RotatedRect struct {
	Center orb.Point `json:"center"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Angle  float64   `json:"angle"`
}

func (r RotatedRect) Corners() [4]orb.Point {
	rad := r.Angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	h := orb.Point{cos * r.Height / 2, sin * r.Height / 2}
	w := orb.Point{sin * r.Width / 2, -cos * r.Width / 2}

	cx, cy := r.Center.X(), r.Center.Y()
	return [4]orb.Point{
		{cx - w.X() - h.X(), cy - w.Y() - h.Y()},
		{cx + w.X() - h.X(), cy + w.Y() - h.Y()},
		{cx + w.X() + h.X(), cy + w.Y() + h.Y()},
		{cx - w.X() + h.X(), cy - w.Y() + h.Y()},
	}
}

// Bound описывающий AABB повернутых углов.
func (r RotatedRect) Bound() orb.Bound {
	corners := r.Corners()
	return orb.MultiPoint(corners[:]).Bound()
}

// RectBound bound прямоугольника от левого верхнего угла.
func RectBound(x, y, w, h float64) orb.Bound {
	return orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x + w, y + h}}
}

// Overlaps проверяет пересечение внутренних областей. Касание границ
// пересечением не считается.
func Overlaps(a, b orb.Bound) bool {
	return a.Min.X() < b.Max.X()-Epsilon &&
		a.Max.X() > b.Min.X()+Epsilon &&
		a.Min.Y() < b.Max.Y()-Epsilon &&
		a.Max.Y() > b.Min.Y()+Epsilon
}

// Clamp ограничивает v отрезком [lo, hi]. При hi < lo побеждает lo.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
