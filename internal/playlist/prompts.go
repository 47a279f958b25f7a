package playlist

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt construction for the completion service. Every prompt demands a
// single machine-parseable JSON object; the shapes are parsed in suggest.go.

const songsShape = `Respond ONLY with JSON:
{"songs": [{"title": "...", "artist": "..."}]}`

const singleShape = `Respond ONLY with JSON:
{"title": "...", "artist": "..."}`

func trackList(tracks []Track) string {
	labels := make([]string, len(tracks))
	for i, t := range tracks {
		labels[i] = t.Label()
	}
	return strings.Join(labels, ", ")
}

func tracksJSON(tracks []Track) string {
	data, err := json.Marshal(tracks)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func qaContext(qa []QA) string {
	if len(qa) == 0 {
		return "No stated preferences"
	}
	lines := make([]string, len(qa))
	for i, p := range qa {
		answer := p.Answer
		if answer == "" {
			answer = "Unanswered"
		}
		lines[i] = fmt.Sprintf("Q: %s\nA: %s", p.Question, answer)
	}
	return strings.Join(lines, "\n\n")
}

// seededBatchPrompt instructs the model to curate an exact-size playlist out
// of the candidate pool, weighing the internal seed analysis against the
// user's situational answers.
func seededBatchPrompt(pc Context, target int) (system, user string) {
	system = fmt.Sprintf(`You are an expert music curator. You build playlists that make the user feel someone read their mind.

Build a listener profile in two layers:
- Technical layer (40%%), derived from the internal analysis: sonic density, dynamics, texture, production style, voice/music balance, tempo and energy range.
- Emotional and situational layer (60%%), derived from the user's answers: the core emotion sought with all its nuance, any desired emotional tension, the image or moment to evoke, the narrative the playlist should tell, and the state it should leave the user in.

Select exactly %d songs, ordered with an emotional arc: an entry (first 20%%) that introduces the state gradually, a core (middle 60%%), and a close (last 20%%) that resolves, intensifies, or suspends.

Rules:
- At most 2 songs by the same artist
- At least 30%% songs the user probably does not know
- Every song earns its place emotionally, not just by genre
- Emotional coherence over genre coherence

%s`, target, songsShape)

	analysis := pc.Analysis
	if analysis == "" {
		analysis = "Not available"
	}

	user = fmt.Sprintf(`User seed songs: %s

INTERNAL ANALYSIS (technical and emotional context of the seeds, 40%% weight):
%s

USER ANSWERS (situational and emotional preferences, 60%% weight):
%s

Available candidates for the playlist:
%s

Build the profile combining analysis (40%% technical) and answers (60%% emotional), then select the %d best songs.`,
		trackList(pc.Seeds), analysis, qaContext(pc.QA), tracksJSON(pc.Candidates), target)

	return system, user
}

// intentionBatchPrompt instructs the model to invent a playlist for a
// free-text intention. Surprise mode drops genre and reference context and
// raises the discovery floor.
func intentionBatchPrompt(pc Context, target int) (system, user string) {
	if pc.Surprise {
		system = fmt.Sprintf(`You are the best music curator in the world. Your only input is an intention; no genres, no references. That is enough.

Your job: a playlist that makes the user think "how did it know exactly what I needed?".

Analyze the intention in depth: the core emotion with all its specificity, whether it should be held or transformed, the image or time of day it evokes, and the narrative the playlist should follow from start to finish. Define an emotional arc: entry, core, close. Cross genres unexpectedly but coherently.

Rules:
- At least 40%% songs the user probably does not know: deep cuts, hidden gems, lesser-known albums by famous artists
- Never the most obvious hits; find the song fans know but the general public does not
- Vary eras, genres, and musical cultures within the emotional coherence
- At most 2 songs by the same artist
- Every song has a clear reason to be there
- The playlist flows; each ending prepares the next song emotionally

Generate exactly %d songs.

%s`, target, songsShape)
		user = fmt.Sprintf("Intention: %s", pc.Intention)
		return system, user
	}

	system = fmt.Sprintf(`You are an expert music curator. The user describes a moment or intention; your job is to build the perfect playlist for it.

Analyze the intention in depth: the core emotion and its nuance, whether the user wants to hold or transform that state, the image or time of day it evokes, and the narrative the playlist should tell. Define an emotional arc: entry, core, close. If genres are given, use them as a frame, not a limit. If reference songs are given, find what they share emotionally and match that feeling, not necessarily that genre.

Rules:
- The intention matters most, above genres and references
- At least 30%% songs the user probably does not know
- At most 2 songs by the same artist
- Do not include the reference songs in the final playlist
- Every song is justified by the intention, not just the genre
- Emotional coherence over genre coherence

Generate exactly %d songs.

%s`, target, songsShape)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Intention: %s", pc.Intention)
	if pc.Genres != "" {
		fmt.Fprintf(&sb, "\n\nPreferred genres: %s", pc.Genres)
	}
	if len(pc.References) > 0 {
		fmt.Fprintf(&sb, "\n\nUser reference songs (find what they share emotionally, not necessarily their genre):\n")
		for _, t := range pc.References {
			fmt.Fprintf(&sb, "- %s\n", t.Label())
		}
		fmt.Fprintf(&sb, "\nDo NOT include these songs: %s", trackList(pc.References))
	}

	return system, sb.String()
}

// replacementPrompt asks for exactly one song matching the intention context,
// excluding every label in excluded.
func replacementPrompt(pc Context, excluded []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggest ONE song that fits this intention: %q", pc.Intention)
	if pc.Genres != "" {
		fmt.Fprintf(&sb, ". Preferred genres: %s", pc.Genres)
	}
	if len(pc.References) > 0 {
		fmt.Fprintf(&sb, "\nReference songs: %s", trackList(pc.References))
	}
	if len(excluded) > 0 {
		fmt.Fprintf(&sb, "\n\nThe song must NOT be any of these: %s", strings.Join(excluded, ", "))
	}
	fmt.Fprintf(&sb, "\n\n%s", singleShape)
	return sb.String()
}

// refinePrompt instructs the model to evolve the current playlist according
// to free-text feedback, keeping what already works.
func refinePrompt(pc Context, current []Track, feedback string, target int) (system, user string) {
	system = fmt.Sprintf(`You are a music curator refining a playlist based on user feedback.

Identify which dimension the feedback criticizes: energy, genre or style, emotion, or fit with the original request. Keep the songs in the current playlist that already satisfy the feedback. For the rest, find substitutions that correct exactly what was criticized without breaking what worked.

Rules:
- Energy feedback adjusts energy, not necessarily genre
- Style feedback keeps the emotional feeling but changes the sonic texture
- Emotional feedback takes priority over everything else
- Emotional coherence over genre coherence
- At most 2 songs by the same artist in the final playlist
- The refined playlist is an evolution of the original, not a replacement

%s
with exactly %d songs.`, songsShape, target)

	user = fmt.Sprintf(`Original seed songs: %s

Current playlist: %s

User feedback: %q

Available candidates:
%s

Create a refined playlist of %d songs based on the feedback.`,
		trackList(pc.Seeds), trackList(current), feedback, tracksJSON(pc.Candidates), target)

	return system, user
}

// substitutePrompt builds the base prompt for replacing one discarded track.
// Artists already in the playlist are excluded outright, which is stricter
// than the track-level exclusion used elsewhere.
func substitutePrompt(pc Context, current []Track, discarded Track, reason string) string {
	artists := make([]string, len(current))
	songs := make([]string, len(current))
	for i, t := range current {
		artists[i] = strings.ToLower(t.Artist)
		songs[i] = t.Label()
	}

	var sb strings.Builder
	sb.WriteString("You are a music curator substituting ONE song in a playlist.\n\nCONTEXT:\n")

	if pc.Mode == ModeSeeded {
		analysis := pc.Analysis
		if analysis == "" {
			analysis = "Not available"
		}
		answers := "No answers"
		if len(pc.QA) > 0 {
			answers = qaContext(pc.QA)
		}
		fmt.Fprintf(&sb, "- Original seed songs: %s\n", trackList(pc.Seeds))
		fmt.Fprintf(&sb, "- Internal analysis of the seeds: %s\n", analysis)
		fmt.Fprintf(&sb, "- User answers to the questions: %s\n", answers)
		fmt.Fprintf(&sb, "- Current playlist (without the discarded song): %s\n", strings.Join(songs, ", "))
		fmt.Fprintf(&sb, "- Discarded song: %s\n", discarded.Label())
		fmt.Fprintf(&sb, "- Artists already in the playlist (do NOT repeat): %s\n", strings.Join(artists, ", "))
		sb.WriteString(`
Your task: suggest ONE song that:
- Shares the texture, sonic density, and production of the set
- Fits the core emotion and emotional arc of the playlist
- Respects the user's situational answers
- Is not by an artist already in the playlist
- Is preferably less known than the seed songs
`)
	} else {
		fmt.Fprintf(&sb, "- Playlist created for: %q\n", pc.Intention)
		fmt.Fprintf(&sb, "- Current playlist (without the discarded song): %s\n", strings.Join(songs, ", "))
		fmt.Fprintf(&sb, "- Discarded song: %s\n", discarded.Label())
		switch reason {
		case DiscardNoMoment:
			sb.WriteString("- Discard reason: the song does not fit the moment/intention the user asked for\n")
			fmt.Fprintf(&sb, "- Artists already in the playlist (do NOT repeat): %s\n", strings.Join(artists, ", "))
			sb.WriteString("\nFind something that matches the intention more faithfully, even if it changes genre or style entirely.\n")
		case DiscardNoStyle:
			sb.WriteString("- Discard reason: the user dislikes the style/sound of the song\n")
			fmt.Fprintf(&sb, "- Artists already in the playlist (do NOT repeat): %s\n", strings.Join(artists, ", "))
			sb.WriteString("\nKeep the emotional feeling of the discarded song but find a different sonic texture and production.\n")
		default:
			fmt.Fprintf(&sb, "- Artists already in the playlist (do NOT repeat): %s\n", strings.Join(artists, ", "))
			sb.WriteString("\nSuggest ONE different song that fits the intention. Any genre is fine if it is emotionally right.\n")
		}
		sb.WriteString("\nDo not repeat artists already in the playlist.\n")
	}

	fmt.Fprintf(&sb, "\n%s", singleShape)
	return sb.String()
}

// questionsPrompt asks for the internal seed analysis plus three situational
// questions with differentiated options.
func questionsPrompt(seeds []Track) (system, user string) {
	system = `You are an expert in music psychology and taste profiling. You receive a list of songs the user likes.

PHASE 1 - INTERNAL ANALYSIS (never shown to the user):
Analyze the songs in two layers. Technical (40%): tempo, energy, sonic structure, production era, vocal prominence; adapt priorities to the detected genre. Emotional/narrative (60%): the predominant emotion and whether it is simple or contradictory, the image or moment it evokes, the underlying tension connecting the songs, the non-obvious pattern between them.

PHASE 2 - GENERATE 3 SITUATIONAL QUESTIONS:
The questions explore WHY the user likes these songs, not WHAT they are technically. They are situational or emotional, sound like a friend who knows music, and never mention genre, BPM, tempo, instrumentation, or technical jargon. Adapt them to the detected kind of music.

Each question has 4 concrete, evocative options plus an open field (5 total). The four options must differ sharply in register: one direct and practical, one evocative or metaphorical, one physical or sensory, one social or contextual. Never use musical adjectives like "energetic", "calm", "melodic". The fifth option is always: "Something else: ___".

Respond ONLY with JSON:
{
  "analysis": "[full internal analysis, used to generate the playlist, NEVER shown to the user]",
  "questions": [
    {
      "question": "...",
      "options": ["...", "...", "...", "...", "Something else: ___"]
    }
  ]
}`

	user = fmt.Sprintf("Selected songs: %s", trackList(seeds))
	return system, user
}
