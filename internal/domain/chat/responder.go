package chat

import (
	"fmt"
	"strings"
)

// Topic is the template a message was classified into.
type Topic string

const (
	TopicMindMap Topic = "mind-map"
	TopicStudy   Topic = "study-plan"
	TopicTasks   Topic = "tasks"
	TopicGeneral Topic = "general"
)

var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicMindMap, []string{"mind map", "mindmap"}},
	{TopicStudy, []string{"study", "learn"}},
	{TopicTasks, []string{"task", "todo"}},
}

// Classify picks the first topic whose keywords appear in the lowercased
// input.
func Classify(input string) Topic {
	lower := strings.ToLower(input)
	for _, t := range topicKeywords {
		for _, k := range t.keywords {
			if strings.Contains(lower, k) {
				return t.topic
			}
		}
	}
	return TopicGeneral
}

// Respond returns the canned reply for input.
func Respond(input string) string {
	switch Classify(input) {
	case TopicMindMap:
		return "Here is a starting structure for your mind map:\n\n" +
			"Central topic: your main idea\n" +
			"Branch 1: key concepts\n" +
			"Branch 2: related ideas\n" +
			"Branch 3: action items\n" +
			"Branch 4: resources\n\n" +
			"Add a text node for each branch and connect them to the center."
	case TopicStudy:
		return "A simple study plan:\n\n" +
			"Week 1: fundamentals and core concepts\n" +
			"Week 2: practice with small exercises\n" +
			"Week 3: a hands-on project\n" +
			"Week 4: review and fill the gaps\n\n" +
			"Create a task node per week with a due date to see it on the timeline."
	case TopicTasks:
		return "Let's break that down into tasks:\n\n" +
			"1. Research and planning\n" +
			"2. Gather resources\n" +
			"3. Do the work\n" +
			"4. Review and refine\n\n" +
			"Each step can become a task node with subtasks and a priority."
	default:
		return fmt.Sprintf("I can help you with %q. Try asking me to create a mind map, "+
			"plan your studies, or break work into tasks.", input)
	}
}
