package service

import (
	"fmt"
	"strings"
)

// Fixed instructions for the LLM stages. Each stage sends one of these as the
// system message and the document markdown as the user message.

const annotateInstruction = `Process the given markdown document as follows and output the amended markdown.

- After each figure in the text, append the line ` + "`![Local Image](picture-$.png)`" + ` where $ is the 1-based figure number.
- After each table in the text, append the line ` + "`![Local Image](table-$.png)`" + ` where $ is the 1-based table number.

Output only the markdown document itself, with no extra commentary.`

const translateInstruction = `Translate the following markdown document into Japanese.
Leave code blocks and markdown formatting untouched.
Keep headings in the original language, untranslated.

Output only the markdown document itself, with no extra commentary.`

const explainInstruction = `I want to read this paper. Summarize it under the following constraints.
Goal: grasp the paper from overview to detail, to decide whether it deserves a close read.
Audience: an undergraduate who knows the basics of deep learning.
Follow the structure in the example below. Cover all of the paper's content and include whatever you judge necessary to understand it. If something is not stated in the paper, say "not stated in the paper".
Use only what is written in the paper. Hallucination is forbidden.
Do not translate literally; write with the field's context in mind.
Output markdown, not running prose, so the flow and structure stay visible.
Do not worry about output length. Being cut off mid-output is acceptable; completing the task fully matters more than any length limit, and omissions are not acceptable.

===== Structure (example) =====
# Abstract
translation

# Problem being solved
## Prior work and its trajectory (related work)
## What this work solves and how
problem 1
 -> how it is solved
problem 2
 -> how it is solved
problem 3
 -> how it is solved
(and so on)

# Proposed method
## Intuition behind the method
## Method details
the components of the method and how the mechanism works

# Experiments
## Setup
## Results

# Discussion
## Why the method works well
## Where it beats prior methods, and where it falls short

# Future directions`

const threadInstruction = `Write a fictional, creative internet forum thread about the following paper.

[Instructions]
- Understand the paper thoroughly and think step by step.
- Include post numbers, handles, timestamps and IDs; write reply anchors as >>N.
- Put at least 10 experts and 2 beginners in the thread and have them debate from multiple angles.
- Keep the discussion substantive; no cheering each other on.
- Invent a thread title and run the exchange for at least 30 posts.
- Explain jargon where it appears.
- Get the paper's content right, then deliver it in a casual forum voice.
- Format the thread like this:


## [Thread] (thread title)


### 1 Name: Anonymous Deep Learning Beginner [yyyy/mm/dd hh:mm:ss.ss] ID:xxXXxx0


(opening post)


### 2 Name: xx [yyyy/mm/dd hh:mm:ss.ss] ID:yYyYyY1


>>1


(replies continue)`

const chatSystemPrompt = `You are a specialist in explaining research papers.
Understand the paper below and answer the user's questions clearly.`

const chatAssistantAck = "I have read the paper. Ask me anything."

// chatSeedUserPrompt builds the user message that carries the paper body and
// enumerates the extracted images so the model can refer to them by file name.
func chatSeedUserPrompt(markdown string, imageNames []string) string {
	var sb strings.Builder
	sb.WriteString("Please tell me about the paper below.\n\n<paper>\n")
	sb.WriteString(markdown)
	sb.WriteString("\n</paper>\n")

	sb.WriteString("\n\n<images>")
	for i, name := range imageNames {
		fmt.Fprintf(&sb, "\nImage %d is %s.", i+1, name)
	}
	sb.WriteString("\n</images>")
	return sb.String()
}

// stripFences removes markdown code-fence markers the model sometimes wraps
// its whole output in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```markdown", "")
	return strings.ReplaceAll(s, "```", "")
}
