package clip

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// CLIPの学習時と同じ正規化パラメータ（RGB順）
var (
	normMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	normStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Preprocess は入力画像をモデル入力テンソルへ変換する。
// 短辺をsizeに合わせて拡縮した後に中央をsize×sizeで切り出し、
// RGB各チャネルを正規化したCHWレイアウトのfloat32列を返す。
// 問い合わせ画像と候補画像の両方にまったく同じ変換が適用される。
func Preprocess(img image.Image, size int) ([]float32, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("zero-dimension image: %dx%d", bounds.Dx(), bounds.Dy())
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid target size: %d", size)
	}

	scaled := scaleShortSide(img, size)
	cropped := centerCrop(scaled, size)

	data := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := cropped.At(cropped.Bounds().Min.X+x, cropped.Bounds().Min.Y+y).RGBA()
			idx := y*size + x
			data[idx] = (float32(r)/65535.0 - normMean[0]) / normStd[0]
			data[plane+idx] = (float32(g)/65535.0 - normMean[1]) / normStd[1]
			data[2*plane+idx] = (float32(b)/65535.0 - normMean[2]) / normStd[2]
		}
	}

	return data, nil
}

// scaleShortSide は短辺がsizeになるようアスペクト比を保って拡縮する
func scaleShortSide(img image.Image, size int) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var dstW, dstH int
	if w < h {
		dstW = size
		dstH = (h*size + w/2) / w
	} else {
		dstH = size
		dstW = (w*size + h/2) / h
	}
	if dstW < size {
		dstW = size
	}
	if dstH < size {
		dstH = size
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// centerCrop は中央のsize×size領域を切り出す
func centerCrop(img *image.RGBA, size int) *image.RGBA {
	bounds := img.Bounds()
	x0 := bounds.Min.X + (bounds.Dx()-size)/2
	y0 := bounds.Min.Y + (bounds.Dy()-size)/2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), img, image.Point{X: x0, Y: y0}, draw.Src)
	return dst
}
