package analysis

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/azure/ai-content-detector/internal/models"
)

const textPrompt = `You are an expert in identifying AI-generated text. Analyze the given text and determine if it is AI-generated or human-written.

Provide a confidence score (0-1) for your determination.
Set the modelUsed to "{{.Model}}".

Provide a brief, top-level analysis summary.

Then, provide a detailed breakdown of your findings, covering:
- Linguistic patterns (sentence structure, word choice).
- Cohesion and logical flow.
- Common AI writing traits (repetition, generic phrases).

Also provide a detailed data breakdown. The 'aiLikelihood' should be the confidenceScore converted to a percentage. Estimate the 'readabilityScore' and 'originalityScore' (0-100) of the text. For 'modelLikelihoods', identify the most likely AI models that could have written this text (e.g., GPT-4, Gemini, Claude, Llama, etc.) and provide an estimated likelihood percentage for each. Only return models with a likelihood greater than 0.

Text: {{.Text}}

Ensure that isAiGenerated is true if the text is determined to be AI-generated, and false if human-written. Keep all explanations concise and easy to read.`

const imagePrompt = `You are an expert in identifying AI-generated images. Analyze the given image and determine if it is AI-generated or human.

Provide a confidence score (0-1) for your determination.
Set the modelUsed to "{{.Model}}".

Provide a brief, top-level analysis summary.

Then, provide a detailed breakdown of your findings, covering:
- Visual inconsistencies (unnatural textures, lighting, shadows).
- Digital artifact analysis (compression artifacts, weird patterns).
- Contextual clues within the image.
- Signs of editing tools (cloning, healing, generative fill).

If you determine that the photo may be AI-generated, suggest to the user where potential modifications happened.

Also provide a detailed data breakdown. The 'aiLikelihood' should be the confidenceScore converted to a percentage. Estimate the 'deepfakeLikelihood' and 'qualityScore' based on the image. For 'modelLikelihoods', identify the most likely AI models that could have generated this image (e.g., Midjourney, DALL-E, Stable Diffusion, etc.) and provide an estimated likelihood percentage for each. Only return models with a likelihood greater than 0.

Image: the attached {{.MimeType}} file.

Ensure that isAiGenerated is true if the image is determined to be AI-generated, and false if human. Keep all explanations concise and easy to read.`

const videoPrompt = `You are an expert in identifying AI-generated videos. Analyze the given video and determine if it is AI-generated or human.

Provide a confidence score (0-1) for your determination.
Set the modelUsed to "{{.Model}}".

Provide a brief, top-level analysis summary.

Then, provide a detailed breakdown of your findings, covering:
- Temporal inconsistencies (unnatural changes over time).
- Digital artifacts (warping, blurring between frames).
- Audio-visual synchronization issues.

If you determine that the video may be AI-generated, suggest to the user where potential modifications happened.

Also provide a detailed data breakdown. The 'aiLikelihood' should be the confidenceScore converted to a percentage. Estimate the 'deepfakeLikelihood' and 'qualityScore' based on the video. For 'modelLikelihoods', identify the most likely AI models that could have generated this video (e.g., Sora, Veo, Kling, Gen-2, etc.) and provide an estimated likelihood percentage for each. Only return models with a likelihood greater than 0.

Video: the attached {{.MimeType}} file.

Ensure that isAiGenerated is true if the video is determined to be AI-generated, and false if human. Keep all explanations concise and easy to read.`

const explainPrompt = `You are an expert in analyzing images to determine if they are AI-generated or human-created.

You are provided with an image, the determination of whether it is AI-generated or human-created, and a confidence score.

Based on this information, provide a brief analysis explaining why the image was classified as such.
If the image is classified as AI, also suggest where potential modifications might have occurred.

Image: the attached {{.MimeType}} file.
Determination: {{.Determination}}
Confidence Score: {{.ConfidenceScore}}

Analysis:
`

var prompts = map[string]*template.Template{
	string(models.ModalityText):  template.Must(template.New("text").Parse(textPrompt)),
	string(models.ModalityImage): template.Must(template.New("image").Parse(imagePrompt)),
	string(models.ModalityVideo): template.Must(template.New("video").Parse(videoPrompt)),
	"explain":                    template.Must(template.New("explain").Parse(explainPrompt)),
}

type promptData struct {
	Model           string
	Text            string
	MimeType        string
	Determination   models.Determination
	ConfidenceScore float64
}

func renderPrompt(name string, data promptData) (string, error) {
	tmpl, ok := prompts[name]
	if !ok {
		return "", fmt.Errorf("no prompt named %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}
