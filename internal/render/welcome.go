package render

// Title is shown at the top of both front-ends
const Title = "🌍 Travel Assistant"

// Instructions tell the user what the assistant can do
var Instructions = []string{
	"Ask about flights, hotels, or tours",
	"Get recommendations based on your location",
	"Ask for budget planning or travel tips",
}

// Commands lists the slash commands understood by the front-ends
var Commands = []string{
	"/history  show the conversation as sent to the assistant",
	"/help     show this help",
	"/exit     quit",
}
