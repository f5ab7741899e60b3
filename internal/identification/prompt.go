package identification

import "fmt"

// notFoundSentinel is the reply the model uses when it cannot read a label.
const notFoundSentinel = "NOT_FOUND"

// IdentifyPrompt asks the model for the brand and model of the pictured player.
const IdentifyPrompt = `You are an expert in vintage audio equipment. Identify the CD PLAYER brand and model number from this image. Return ONLY the model name as a short string (e.g., 'Sony CDP-227ESD'). Do not include any sentences or extra text. If you are not sure, return 'NOT_FOUND'.`

// SpecsSystemPrompt constrains spec lookups to a bare JSON object.
const SpecsSystemPrompt = `You are a reference for vintage CD player hardware. Reply with JSON only.`

// SpecsPrompt builds the spec lookup prompt for a model label.
func SpecsPrompt(label string) string {
	return fmt.Sprintf(`Find the technical specifications for the CD Player model: %q. I need the DAC (Digital-to-Analog Converter) chip name and the Laser Pickup (Optical assembly) model. Return the result in JSON format with keys "dac" and "laser". Example: {"dac": "2 x PCM56P-J & YM3414", "laser": "KSS-151A"}`, label)
}
