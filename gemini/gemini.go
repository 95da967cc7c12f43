// Package gemini implements [mcpcli.Generator] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Streaming uses the SDK's
// iter.Seq2 iterator, wrapped into the pull-based [mcpcli.Stream]
// interface; a single-shot reply is presented as an iterator of one.
package gemini

const defaultModel = "gemini-2.5-flash"
