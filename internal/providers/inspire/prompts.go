package inspire

// LocalPrompts is the built-in inspiration list used when no AI provider answers.
var LocalPrompts = []string{
	"A futuristic city floating above clouds, airships drifting by",
	"Misty enchanted forest at dawn glowing with magical wildlife",
	"Portrait of a robot artist creating a vibrant masterpiece",
	"Where the ocean merges with a swirling galaxy of stars",
	"Steampunk airship hovering over neon-lit metropolis",
	"Sunbeams shining through a stained glass medieval castle",
	"Cyberpunk rainy streets with vivid neon signs and umbrellas",
	"Glass-winged dragonfly perched delicately on a blooming iris",
	"Cozy home library, cat curled up beside raindrop-streaked window",
	"Abstract swirling patterns representing boundless curiosity",
	"Crystal cavern illuminated by bioluminescent fungi and gems",
	"Grand temple floating on water under golden sunrise",
	"Astronaut exploring ancient alien ruins on Mars",
	"A city park where trees have luminous, floating leaves",
	"Fantasy village built inside giant mushrooms at dusk",
	"Dragon soaring over snowy peaks, casting a long shadow",
	"Retro diner at midnight, rain outside, neon lights",
	"Vast cosmic whale gliding through violet star clouds",
	"Glitch-art city where reality bends around every corner",
	"Peaceful zen garden with raked sand and cherry blossoms",
	"Surreal parade of clockwork animals down cobbled streets",
	"Giant crystal flower blooming in a moonlit desert",
	"Deep jungle waterfall pouring into a glowing lagoon",
	"Wizard's study cluttered with potions, books, and candles",
	"Children flying kites shaped like mythical beasts",
	"Ancient oak tree with lanterns and secret doorways",
	"Sky filled with hot air balloons during sunrise",
	"Miniature mountain range on a painter's wooden palette",
	"A ship sailing through clouds as if they were oceans",
	"Urban rooftop garden glowing with bioluminescent plants",
	"Viking longship frozen in an ice cavern",
	"Floating library orbiting a distant blue planet",
	"Epic showdown between a giant and a tiny hero",
	"Magician pulling stardust from an endless top hat",
	"Antique clock tower overtaken by sprawling foliage",
	"Shadowy figure walking into a swirling portal",
	"Art deco cityscape drenched in gold and turquoise light",
	"Playful fox and crow together in a blossoming field",
	"Train racing through a thunderstorm under Northern Lights",
	"Underwater palace made of coral and pearls",
	"Time traveler's workshop filled with clockwork gadgets",
	"Majestic phoenix rising from ashes in a volcanic landscape",
	"Secret garden hidden behind a waterfall",
	"Space station orbiting a ringed planet",
	"Medieval knight riding a mechanical dragon",
	"Floating islands connected by rainbow bridges",
	"Enchanted bookstore where stories come to life",
	"Crystal palace reflecting aurora borealis",
	"Pirate ship sailing through a storm of shooting stars",
}
