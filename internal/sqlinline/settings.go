package sqlinline

const QSelectSettings = `--sql 1c4e0ffd-560e-468e-abb3-495fb4458b7c
select value::text
from user_settings
where key = $1
`

const QUpsertSettings = `--sql 26e233d5-9083-4c3e-ac8f-40281a134299
insert into user_settings (key, value, updated_at)
values ($1, $2::jsonb, now())
on conflict (key) do update set
    value = excluded.value,
    updated_at = now()
`

const QDeleteSettings = `--sql 9fe4584f-347c-4d0d-ba4c-ecb1b213f094
delete from user_settings
where key = $1
`
