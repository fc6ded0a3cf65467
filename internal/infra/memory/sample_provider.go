package memory

import (
	"context"
	"strings"

	"github.com/Tohidkhan6332/tohid-quiz-bot/internal/domain"
)

// SampleProvider serves the built-in question sets. It backs rounds when the
// trivia API is unreachable and demo runs without any external source.
type SampleProvider struct {
	sets map[string][]domain.Question
}

func NewSampleProvider() *SampleProvider {
	return &SampleProvider{sets: sampleQuestions()}
}

func (p *SampleProvider) Fetch(_ context.Context, category string, _ domain.Difficulty, count int) ([]domain.Question, error) {
	set, ok := p.sets[strings.ToLower(category)]
	if !ok {
		set = p.sets["science"]
	}
	if count > len(set) {
		count = len(set)
	}
	out := make([]domain.Question, count)
	copy(out, set[:count])
	return out, nil
}

func sampleQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"science": {
			{Prompt: "What is the chemical symbol for water?", Options: []string{"H2O", "CO2", "NaCl", "O2"}, CorrectAnswer: "H2O"},
			{Prompt: "Which planet is known as the Red Planet?", Options: []string{"Mars", "Jupiter", "Venus", "Saturn"}, CorrectAnswer: "Mars"},
			{Prompt: "What gas do plants absorb from the atmosphere?", Options: []string{"Carbon dioxide", "Oxygen", "Nitrogen", "Hydrogen"}, CorrectAnswer: "Carbon dioxide"},
			{Prompt: "How many bones are in the adult human body?", Options: []string{"206", "201", "212", "198"}, CorrectAnswer: "206"},
			{Prompt: "What is the speed of light in vacuum, approximately?", Options: []string{"300,000 km/s", "150,000 km/s", "1,000,000 km/s", "30,000 km/s"}, CorrectAnswer: "300,000 km/s"},
			{Prompt: "Which metal is liquid at room temperature?", Options: []string{"Mercury", "Iron", "Aluminium", "Sodium"}, CorrectAnswer: "Mercury"},
			{Prompt: "What part of the cell contains genetic material?", Options: []string{"Nucleus", "Ribosome", "Membrane", "Cytoplasm"}, CorrectAnswer: "Nucleus"},
			{Prompt: "What force keeps planets in orbit around the Sun?", Options: []string{"Gravity", "Magnetism", "Friction", "Inertia"}, CorrectAnswer: "Gravity"},
			{Prompt: "What is the hardest natural substance on Earth?", Options: []string{"Diamond", "Quartz", "Granite", "Steel"}, CorrectAnswer: "Diamond"},
			{Prompt: "How many chromosomes do humans have?", Options: []string{"46", "44", "48", "42"}, CorrectAnswer: "46"},
		},
		"history": {
			{Prompt: "Who was the first President of India?", Options: []string{"Rajendra Prasad", "Jawaharlal Nehru", "Sardar Patel", "Dr. Ambedkar"}, CorrectAnswer: "Rajendra Prasad"},
			{Prompt: "In which year did World War II end?", Options: []string{"1945", "1944", "1946", "1943"}, CorrectAnswer: "1945"},
			{Prompt: "The Great Wall is located in which country?", Options: []string{"China", "India", "Japan", "Mongolia"}, CorrectAnswer: "China"},
			{Prompt: "Who discovered the sea route to India in 1498?", Options: []string{"Vasco da Gama", "Columbus", "Magellan", "Marco Polo"}, CorrectAnswer: "Vasco da Gama"},
			{Prompt: "Which empire built the Colosseum?", Options: []string{"Roman", "Greek", "Ottoman", "Persian"}, CorrectAnswer: "Roman"},
			{Prompt: "Who wrote the Declaration of Independence?", Options: []string{"Thomas Jefferson", "George Washington", "Benjamin Franklin", "John Adams"}, CorrectAnswer: "Thomas Jefferson"},
			{Prompt: "The pyramids of Giza were built as what?", Options: []string{"Tombs", "Temples", "Granaries", "Palaces"}, CorrectAnswer: "Tombs"},
			{Prompt: "Which year did the Berlin Wall fall?", Options: []string{"1989", "1991", "1987", "1985"}, CorrectAnswer: "1989"},
			{Prompt: "Who was known as the Iron Lady?", Options: []string{"Margaret Thatcher", "Indira Gandhi", "Golda Meir", "Angela Merkel"}, CorrectAnswer: "Margaret Thatcher"},
			{Prompt: "The Renaissance began in which country?", Options: []string{"Italy", "France", "Spain", "England"}, CorrectAnswer: "Italy"},
		},
		"geography": {
			{Prompt: "What is the largest ocean on Earth?", Options: []string{"Pacific", "Atlantic", "Indian", "Arctic"}, CorrectAnswer: "Pacific"},
			{Prompt: "Which is the longest river in the world?", Options: []string{"Nile", "Amazon", "Yangtze", "Mississippi"}, CorrectAnswer: "Nile"},
			{Prompt: "What is the capital of Australia?", Options: []string{"Canberra", "Sydney", "Melbourne", "Perth"}, CorrectAnswer: "Canberra"},
			{Prompt: "Which desert is the largest in the world?", Options: []string{"Sahara", "Gobi", "Kalahari", "Atacama"}, CorrectAnswer: "Sahara"},
			{Prompt: "Mount Everest lies on the border of Nepal and which country?", Options: []string{"China", "India", "Bhutan", "Pakistan"}, CorrectAnswer: "China"},
			{Prompt: "Which continent has the most countries?", Options: []string{"Africa", "Asia", "Europe", "South America"}, CorrectAnswer: "Africa"},
			{Prompt: "What is the smallest country in the world?", Options: []string{"Vatican City", "Monaco", "San Marino", "Liechtenstein"}, CorrectAnswer: "Vatican City"},
			{Prompt: "The Amazon rainforest is mostly in which country?", Options: []string{"Brazil", "Peru", "Colombia", "Venezuela"}, CorrectAnswer: "Brazil"},
			{Prompt: "Which sea separates Europe and Africa?", Options: []string{"Mediterranean", "Red Sea", "Black Sea", "Baltic Sea"}, CorrectAnswer: "Mediterranean"},
			{Prompt: "What is the capital of Canada?", Options: []string{"Ottawa", "Toronto", "Vancouver", "Montreal"}, CorrectAnswer: "Ottawa"},
		},
		"sports": {
			{Prompt: "How many players are on a soccer team on the field?", Options: []string{"11", "10", "12", "9"}, CorrectAnswer: "11"},
			{Prompt: "In which sport is the term 'love' used?", Options: []string{"Tennis", "Golf", "Cricket", "Badminton"}, CorrectAnswer: "Tennis"},
			{Prompt: "How often are the Summer Olympics held?", Options: []string{"Every 4 years", "Every 2 years", "Every 3 years", "Every 5 years"}, CorrectAnswer: "Every 4 years"},
			{Prompt: "Which country invented cricket?", Options: []string{"England", "Australia", "India", "South Africa"}, CorrectAnswer: "England"},
			{Prompt: "How many rings are on the Olympic flag?", Options: []string{"5", "4", "6", "7"}, CorrectAnswer: "5"},
		},
		"technology": {
			{Prompt: "What does CPU stand for?", Options: []string{"Central Processing Unit", "Computer Personal Unit", "Central Program Utility", "Core Processing Unit"}, CorrectAnswer: "Central Processing Unit"},
			{Prompt: "Who co-founded Apple with Steve Jobs?", Options: []string{"Steve Wozniak", "Bill Gates", "Paul Allen", "Larry Page"}, CorrectAnswer: "Steve Wozniak"},
			{Prompt: "What does HTTP stand for?", Options: []string{"HyperText Transfer Protocol", "High Transfer Text Protocol", "Hyper Terminal Transfer Process", "Home Tool Transfer Protocol"}, CorrectAnswer: "HyperText Transfer Protocol"},
			{Prompt: "Which language runs in a web browser?", Options: []string{"JavaScript", "C", "Go", "Rust"}, CorrectAnswer: "JavaScript"},
			{Prompt: "In what year was the first iPhone released?", Options: []string{"2007", "2005", "2008", "2010"}, CorrectAnswer: "2007"},
		},
	}
}
