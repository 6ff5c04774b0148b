package services

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders for the formats in the upload allow-list.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"golang.org/x/image/draw"
)

// Input geometry of the classifier: 224x224 RGB, NHWC layout.
const (
	InputHeight   = 224
	InputWidth    = 224
	InputChannels = 3
)

// Per-channel ImageNet means, subtracted after the RGB->BGR swap. These match
// the scaling the classifier was trained with, so they must not change
// independently of the model artifact.
const (
	meanBlue  = 103.939
	meanGreen = 116.779
	meanRed   = 123.68
)

// ImageTensor is a preprocessed image ready for inference: a float32 NHWC
// buffer of shape (1, Height, Width, Channels) in BGR channel order.
type ImageTensor struct {
	Data     []float32
	Height   int
	Width    int
	Channels int
}

// Preprocessor turns raw image bytes into the fixed-shape tensor the
// classifier expects. It is stateless and safe for concurrent use.
type Preprocessor struct{}

// NewPreprocessor creates a new image preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Preprocess decodes the image, resizes it to 224x224 with bilinear
// filtering, and scales pixels to the range the model was trained on.
// The same bytes always produce the same tensor.
func (p *Preprocessor) Preprocess(data []byte) (*ImageTensor, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	resized := image.NewRGBA(image.Rect(0, 0, InputWidth, InputHeight))
	draw.BiLinear.Scale(resized, resized.Bounds(), src, src.Bounds(), draw.Src, nil)

	tensor := &ImageTensor{
		Data:     make([]float32, InputHeight*InputWidth*InputChannels),
		Height:   InputHeight,
		Width:    InputWidth,
		Channels: InputChannels,
	}

	i := 0
	for y := 0; y < InputHeight; y++ {
		for x := 0; x < InputWidth; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			// BGR order with mean subtraction, as in the training pipeline.
			tensor.Data[i] = float32(b>>8) - meanBlue
			tensor.Data[i+1] = float32(g>>8) - meanGreen
			tensor.Data[i+2] = float32(r>>8) - meanRed
			i += InputChannels
		}
	}
	return tensor, nil
}
