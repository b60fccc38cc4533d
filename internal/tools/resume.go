package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taskpilot/taskpilot/internal/helpers"
	"github.com/taskpilot/taskpilot/internal/plan"
	"github.com/taskpilot/taskpilot/provider"
)

// ResumeParserTool answers "resume_parser" steps. It reads a plain-text
// resume from disk and publishes its text for downstream analysis. Missing
// or unsupported files degrade to an error field in the output instead of
// failing the step.
type ResumeParserTool struct{}

// Run implements Tool.
func (t *ResumeParserTool) Run(_ context.Context, args map[string]interface{}, _ plan.State) ([]string, map[string]interface{}, error) {
	filePath, _ := args["file_path"].(string)
	if filePath == "" {
		return []string{"Error: Resume file not found"}, map[string]interface{}{"resume_text": "", "error": "File not found"}, nil
	}
	if _, err := os.Stat(filePath); err != nil {
		return []string{"Error: Resume file not found"}, map[string]interface{}{"resume_text": "", "error": "File not found"}, nil
	}

	fileName := filepath.Base(filePath)
	ext := strings.ToLower(filepath.Ext(filePath))
	logs := []string{fmt.Sprintf("Parsing resume: %s", fileName)}

	if ext != ".txt" {
		logs = append(logs, fmt.Sprintf("Unsupported file format: %s", ext))
		return logs, map[string]interface{}{"resume_text": "", "error": fmt.Sprintf("Unsupported format: %s", ext)}, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		msg := fmt.Sprintf("Error reading TXT: %v", err)
		logs = append(logs, msg)
		return logs, map[string]interface{}{"resume_text": "", "error": msg}, nil
	}
	text := strings.TrimSpace(string(data))
	wordCount := len(strings.Fields(text))
	logs = append(logs, fmt.Sprintf("Successfully parsed resume (%d words)", wordCount))

	return logs, map[string]interface{}{
		"resume_text": text,
		"file_name":   fileName,
		"word_count":  wordCount,
	}, nil
}

// ResumeAnalyzerTool answers "resume_analyzer" steps. It reads the parsed
// resume text from the shared context and extracts a structured profile,
// via the LLM when configured and a keyword scan otherwise.
type ResumeAnalyzerTool struct {
	LLM provider.LLM
}

// Run implements Tool.
func (t *ResumeAnalyzerTool) Run(ctx context.Context, _ map[string]interface{}, state plan.State) ([]string, map[string]interface{}, error) {
	var resumeText string
	if output, ok := plan.FirstMatch(state, "resume_text"); ok {
		resumeText, _ = output["resume_text"].(string)
	}
	if resumeText == "" {
		return []string{"Error: No resume text found in context"}, map[string]interface{}{"error": "No resume text available"}, nil
	}

	logs := []string{"Analyzing resume content..."}
	var analysis map[string]interface{}
	if t.LLM != nil {
		var err error
		analysis, err = t.analyzeWithLLM(ctx, resumeText)
		if err != nil {
			logs = append(logs, fmt.Sprintf("AI analysis failed: %v, using basic extraction", err))
			analysis = nil
		} else {
			logs = append(logs, "Used AI analysis")
		}
	}
	if analysis == nil {
		analysis = analyzeBasic(resumeText)
		logs = append(logs, "Used basic keyword analysis")
	}

	skills := anySlice(analysis["skills"])
	logs = append(logs, fmt.Sprintf("Analysis complete - Found %d skills", len(skills)))
	return logs, map[string]interface{}{"analysis": analysis}, nil
}

const analyzePromptFormat = `Analyze this resume and extract the following information in JSON format:
1. Name
2. Current role/title
3. Years of experience (estimate)
4. Top 10 skills (technical and soft skills)
5. Education (degrees, institutions)
6. Field of study/specialization
7. Career interests (what kind of roles they'd be interested in)
8. Industry preferences
9. Key achievements
10. Recommended job search keywords

Resume:
%s

Return ONLY valid JSON with these keys: name, current_role, years_experience, skills, education, field_of_study, career_interests, industries, achievements, job_keywords`

func (t *ResumeAnalyzerTool) analyzeWithLLM(ctx context.Context, resumeText string) (map[string]interface{}, error) {
	if len(resumeText) > 4000 {
		resumeText = resumeText[:4000]
	}
	raw, err := t.LLM.Generate(ctx, []provider.Message{{Role: "user", Content: fmt.Sprintf(analyzePromptFormat, resumeText)}})
	if err != nil {
		return nil, err
	}
	extracted, err := helpers.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var analysis map[string]interface{}
	if err := json.Unmarshal([]byte(extracted), &analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

var knownSkills = []string{
	"python", "java", "javascript", "go", "react", "node", "sql", "aws",
	"docker", "kubernetes", "machine learning", "ai", "data science",
	"frontend", "backend", "fullstack", "devops", "cloud",
}

// analyzeBasic is the offline analyzer: keyword matches over the resume
// text, with coarse field detection.
func analyzeBasic(resumeText string) map[string]interface{} {
	lower := strings.ToLower(resumeText)

	var skills []interface{}
	for _, skill := range knownSkills {
		if strings.Contains(lower, skill) {
			skills = append(skills, skill)
		}
		if len(skills) >= 10 {
			break
		}
	}
	if len(skills) == 0 {
		skills = []interface{}{"Programming", "Problem Solving"}
	}

	hasEducation := false
	for _, kw := range []string{"bachelor", "master", "phd", "mba", "degree", "university", "college"} {
		if strings.Contains(lower, kw) {
			hasEducation = true
			break
		}
	}
	education := []interface{}{"Education details in resume"}
	if hasEducation {
		education = []interface{}{"Bachelor's Degree"}
	}

	field := "Technology"
	switch {
	case containsAny(lower, "data", "analytics", "ml", "ai"):
		field = "Data Science / AI"
	case containsAny(lower, "web", "frontend", "backend", "fullstack"):
		field = "Web Development"
	case containsAny(lower, "devops", "cloud", "infrastructure"):
		field = "DevOps / Cloud"
	}

	keywords := make([]interface{}, 0, 7)
	for i, s := range skills {
		if i >= 5 {
			break
		}
		keywords = append(keywords, s)
	}
	keywords = append(keywords, strings.ToLower(field), "remote")

	return map[string]interface{}{
		"name":             "Candidate",
		"current_role":     "Software Professional",
		"years_experience": "3-5",
		"skills":           skills,
		"education":        education,
		"field_of_study":   field,
		"career_interests": []interface{}{field + " roles", "Remote positions", "Growing companies"},
		"industries":       []interface{}{"Technology", "Software", "Startups"},
		"achievements":     []interface{}{"See resume for details"},
		"job_keywords":     keywords,
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
