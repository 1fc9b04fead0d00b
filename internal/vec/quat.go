package vec

import "math"

// Quat представляет поворот в виде кватерниона (x, y, z, w)
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// IdentityQuat возвращает нулевой поворот
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// QuatFromYaw строит поворот вокруг вертикальной оси Y на угол в градусах
func QuatFromYaw(degrees float64) Quat {
	half := degrees * math.Pi / 360
	return Quat{Y: math.Sin(half), W: math.Cos(half)}
}

// IsZero сообщает, что кватернион не задан (все компоненты равны нулю)
func (q Quat) IsZero() bool {
	return q.X == 0 && q.Y == 0 && q.Z == 0 && q.W == 0
}

// Normalized возвращает единичный кватернион; нулевой превращается в IdentityQuat
func (q Quat) Normalized() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return IdentityQuat()
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}
