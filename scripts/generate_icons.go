//go:build ignore

// Генерация иконок трея: go run scripts/generate_icons.go [каталог]
//
// Каждое состояние отличается не только цветом, но и формой,
// чтобы иконки различались в монохромных панелях.
package main

import (
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
)

const size = 64

// shape сообщает, закрашена ли точка (dx, dy) относительно центра.
type shape func(dx, dy float64) bool

func disc(r float64) shape {
	return func(dx, dy float64) bool { return dx*dx+dy*dy <= r*r }
}

func ring(inner, outer float64) shape {
	return func(dx, dy float64) bool {
		d := dx*dx + dy*dy
		return d >= inner*inner && d <= outer*outer
	}
}

func union(shapes ...shape) shape {
	return func(dx, dy float64) bool {
		for _, s := range shapes {
			if s(dx, dy) {
				return true
			}
		}
		return false
	}
}

// waves - точка с дугами по бокам: идёт прослушивание.
func waves() shape {
	arc := func(r float64) shape {
		return func(dx, dy float64) bool {
			d := math.Hypot(dx, dy)
			return math.Abs(d-r) <= 2.5 && math.Abs(dy) < math.Abs(dx)*1.2
		}
	}
	return union(disc(9), arc(18), arc(27))
}

// spinner - разорванное кольцо: идёт обработка.
func spinner() shape {
	r := ring(14, 22)
	return func(dx, dy float64) bool {
		if !r(dx, dy) {
			return false
		}
		a := math.Atan2(dy, dx)
		return a < 0 || a > math.Pi/2
	}
}

func main() {
	dir := "embedded"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("Не удалось создать директорию %s: %v", dir, err)
	}

	icons := []struct {
		name  string
		color color.NRGBA
		shape shape
	}{
		{"icon_idle.png", color.NRGBA{128, 128, 128, 255}, ring(12, 20)},
		{"icon_listening.png", color.NRGBA{50, 180, 80, 255}, waves()},
		{"icon_recording.png", color.NRGBA{220, 50, 50, 255}, disc(20)},
		{"icon_processing.png", color.NRGBA{230, 160, 50, 255}, spinner()},
	}

	for _, icon := range icons {
		path := filepath.Join(dir, icon.name)
		if err := writeIcon(path, icon.color, icon.shape); err != nil {
			log.Fatalf("Ошибка генерации %s: %v", icon.name, err)
		}
		log.Printf("Создан: %s", path)
	}
}

func writeIcon(path string, c color.NRGBA, s shape) error {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	center := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if s(float64(x)+0.5-center, float64(y)+0.5-center) {
				img.SetNRGBA(x, y, c)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
