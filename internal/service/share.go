package service

import (
	"errors"
	"time"

	"github.com/sakif/prompt-cards/internal/model"
)

// ErrMissingShareID is returned when a share link carries no user id.
// The HTTP layer answers it with a redirect to the owner page.
var ErrMissingShareID = errors.New("share link has no user id")

const SampleTitle = "Sample Shared Prompts"

// SharedView is a resolved share link.
type SharedView struct {
	Title   string
	OwnerID string // empty for samples
	Prompts []model.PromptRecord
	// Sample is true when the id did not resolve and the built-in samples are shown.
	Sample bool
}

// ResolveShare looks userID up in a directory snapshot. It never mutates anything.
//
// A known user yields that user's public records. An unknown id (typically a
// link opened in a browser profile that never saw the user) yields the
// built-in samples stamped with now.
func ResolveShare(users []model.User, userID string, now time.Time) (SharedView, error) {
	if userID == "" {
		return SharedView{}, ErrMissingShareID
	}

	for _, u := range users {
		if u.ID == userID {
			return SharedView{
				Title:   u.Username + "'s Shared Prompts",
				OwnerID: u.ID,
				Prompts: publicOnly(u.Prompts),
			}, nil
		}
	}

	return SharedView{
		Title:   SampleTitle,
		Prompts: SamplePrompts(now),
		Sample:  true,
	}, nil
}

// SamplePrompts returns the two illustrative records of the sample share page.
func SamplePrompts(now time.Time) []model.PromptRecord {
	ts := now.Format(model.TimestampLayout)
	return []model.PromptRecord{
		{
			ID:        "sample1",
			Prompt:    "What makes an effective leader?",
			AIName:    "ChatGPT",
			ModelName: "GPT-4",
			Result: "<p>Effective leadership combines several key qualities:</p><ul>" +
				"<li><strong>Vision:</strong> The ability to see possibilities and inspire others toward a common goal</li>" +
				"<li><strong>Empathy:</strong> Understanding team members' perspectives and needs</li>" +
				"<li><strong>Integrity:</strong> Maintaining consistent ethical standards</li>" +
				"<li><strong>Adaptability:</strong> Flexibility in changing circumstances</li>" +
				"<li><strong>Communication:</strong> Clear articulation of ideas and active listening</li>" +
				"<li><strong>Decision-making:</strong> Making timely, informed choices</li>" +
				"<li><strong>Accountability:</strong> Taking responsibility for outcomes</li>" +
				"<li><strong>Development:</strong> Investing in others' growth and potential</li></ul>" +
				"<p>Great leaders balance these qualities while adapting their approach to specific situations and team dynamics.</p>",
			Timestamp: ts,
			IsPublic:  true,
		},
		{
			ID:        "sample2",
			Prompt:    "Explain quantum computing to a high school student",
			AIName:    "Claude",
			ModelName: "Claude 2",
			Result: "<p>Quantum computing is like having a super-powered calculator that works in a completely different way than regular computers.</p>" +
				"<p>Regular computers use bits (0s and 1s) to process information - like light switches that are either OFF or ON. They solve problems by checking possibilities one after another.</p>" +
				"<p>Quantum computers use quantum bits or 'qubits' that can exist in multiple states at once thanks to weird quantum physics properties. This is like having switches that can be OFF, ON, or somehow both at the same time!</p>" +
				"<p>This special property lets quantum computers consider many possibilities simultaneously, making them potentially much faster at solving certain complex problems like:</p>" +
				"<ul><li>Breaking encryption codes</li><li>Modeling molecules for new medicines</li><li>Optimizing complex systems like traffic flow</li></ul>" +
				"<p>While regular computers might take billions of years to solve some of these problems, quantum computers might solve them in minutes or seconds. Scientists are still working on building reliable quantum computers, but they could revolutionize fields from medicine to artificial intelligence!</p>",
			Timestamp: ts,
			IsPublic:  true,
		},
	}
}
