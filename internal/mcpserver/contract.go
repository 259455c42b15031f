package mcpserver

// HeaderFormatContract describes the song header format that search reads.
const HeaderFormatContract = `# Song Header Format

Songs are UltraStar ` + "`" + `.txt` + "`" + ` files. Search only reads the header: the run of
` + "`" + `#TAG:VALUE` + "`" + ` lines at the top of the file, before the first note line.

## Structure

` + "```" + `
#TITLE:Bohemian Rhapsody      REQUIRED, searched
#ARTIST:Queen                 REQUIRED, searched
#GENRE:Rock                   optional, searched
#MP3:queen.mp3                optional, audio file name
#BPM:286,5                    optional, ',' or '.' as decimal separator
#GAP:1200                     optional, milliseconds
#YEAR:1975                    optional, integer
#LANGUAGE:English             optional
: 0 4 60 Is                   first note line ends the header
` + "```" + `

## Rules

1. Tag names are case-insensitive; values are trimmed.
2. A value may contain ':'; only the first ':' separates tag and value.
3. A tag may appear only once. A header line without ':' is invalid.
4. Files without #TITLE or #ARTIST, with an invalid header line, or that are
   not UTF-8 are skipped by search.
5. A missing #GENRE is reported as null; ` + "`" + `#GENRE:` + "`" + ` with no value is "".

## Search

Every keyword in the query must occur (case-insensitive substring) in the
artist, the title or the genre. An empty query returns every song. Results
carry a ` + "`" + `song/<file name>` + "`" + ` path that can be passed to read_song or fetched
over HTTP at ` + "`" + `/song/<file name>` + "`" + `.
`
