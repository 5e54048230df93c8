package domain

import "fmt"

// ImageStyle is the visual style requested for a generated image.
type ImageStyle string

const (
	StyleSurreal      ImageStyle = "surreal"
	StyleRealistic    ImageStyle = "realistic"
	StyleCinematic    ImageStyle = "cinematic"
	StyleAnime        ImageStyle = "anime"
	StyleIllustration ImageStyle = "illustration"
	Style3D           ImageStyle = "threeD"
	StylePixel        ImageStyle = "pixel"
)

var imageStyles = []struct {
	style ImageStyle
	label string
	hint  string
}{
	{StyleSurreal, "Surreal", "surreal, dreamlike, unexpected elements"},
	{StyleRealistic, "Realistic", "photorealistic, natural lighting, high detail"},
	{StyleCinematic, "Cinematic", "cinematic lighting, film still, dramatic mood"},
	{StyleAnime, "Cartoon", "cartoon/anime style, clean lines, vibrant colors"},
	{StyleIllustration, "Illustration", "digital illustration, stylized, artistic"},
	{Style3D, "3D", "3D render, soft shadows, high detail"},
	{StylePixel, "Pixel Art", "pixel art, 16-bit, retro game style"},
}

// ImageStyles lists every style in menu order.
func ImageStyles() []ImageStyle {
	out := make([]ImageStyle, 0, len(imageStyles))
	for _, s := range imageStyles {
		out = append(out, s.style)
	}
	return out
}

// ParseImageStyle validates a style name.
func ParseImageStyle(s string) (ImageStyle, error) {
	for _, entry := range imageStyles {
		if string(entry.style) == s {
			return entry.style, nil
		}
	}
	return "", fmt.Errorf("unknown image style %q", s)
}

// Label is the human readable name of the style.
func (s ImageStyle) Label() string {
	for _, entry := range imageStyles {
		if entry.style == s {
			return entry.label
		}
	}
	return string(s)
}

// PromptHint is appended to the user prompt when the image is requested.
func (s ImageStyle) PromptHint() string {
	for _, entry := range imageStyles {
		if entry.style == s {
			return entry.hint
		}
	}
	return ""
}
